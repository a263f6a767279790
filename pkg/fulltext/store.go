package fulltext

import (
	"bytes"
	"encoding/binary"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/cyberlife-coder/velesdb/internal/obslog"
	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// Single-byte key prefixes, one per kind of record.
const (
	prefixPosting   = byte(0x01) // posting:term            -> encoded posting
	prefixTrigram   = byte(0x02) // trigram:gram             -> encoded posting
	prefixDocLength = byte(0x03) // doclength:docID (8 BE)   -> varint token count
	prefixDocText   = byte(0x04) // doctext:docID (8 BE)     -> original text
	prefixTermFreq  = byte(0x05) // termfreq:docID:term      -> varint frequency
	prefixMeta      = byte(0x06) // meta:totalLength/docCount
)

var metaKeyTotalLength = []byte{prefixMeta, 0x01}
var metaKeyDocCount = []byte{prefixMeta, 0x02}

func postingKey(term string) []byte   { return append([]byte{prefixPosting}, []byte(term)...) }
func trigramKey(gram string) []byte   { return append([]byte{prefixTrigram}, []byte(gram)...) }
func docLengthKey(id uint64) []byte   { return append([]byte{prefixDocLength}, uint64Bytes(id)...) }
func docTextKey(id uint64) []byte     { return append([]byte{prefixDocText}, uint64Bytes(id)...) }
func termFreqKey(id uint64, term string) []byte {
	key := append([]byte{prefixTermFreq}, uint64Bytes(id)...)
	key = append(key, 0x00)
	return append(key, []byte(term)...)
}

func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// OpenStore opens (creating if absent) a Badger database rooted at dir
// to back an Index's persistence, logging through logger (obslog.Logger
// already satisfies badger.Logger's shape).
func OpenStore(dir string, logger obslog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)
	if logger != nil {
		opts = opts.WithLogger(logger)
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, verr.Wrap(verr.KindStorage, err, "open text index store at %s", dir)
	}
	return db, nil
}

// Persist writes idx's full state to db, overwriting any prior content
// under its key prefixes.
func (idx *Index) Persist(db *badger.DB) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := db.DropPrefix([]byte{prefixPosting}, []byte{prefixTrigram}, []byte{prefixDocLength},
		[]byte{prefixDocText}, []byte{prefixTermFreq}, []byte{prefixMeta}); err != nil {
		return verr.Wrap(verr.KindStorage, err, "clear text index store")
	}
	return db.Update(func(txn *badger.Txn) error {
		for term, p := range idx.postings {
			if err := txn.Set(postingKey(term), encodePosting(p)); err != nil {
				return err
			}
		}
		for gram, p := range idx.trigram.postings {
			if err := txn.Set(trigramKey(gram), encodePosting(p)); err != nil {
				return err
			}
		}
		for id, l := range idx.docLength {
			if err := txn.Set(docLengthKey(id), encodeUvarint(uint64(l))); err != nil {
				return err
			}
		}
		for id, text := range idx.docText {
			if err := txn.Set(docTextKey(id), []byte(text)); err != nil {
				return err
			}
		}
		for id, tf := range idx.termFreq {
			for term, freq := range tf {
				if err := txn.Set(termFreqKey(id, term), encodeUvarint(uint64(freq))); err != nil {
					return err
				}
			}
		}
		if err := txn.Set(metaKeyTotalLength, encodeUvarint(idx.totalLength)); err != nil {
			return err
		}
		return txn.Set(metaKeyDocCount, encodeUvarint(uint64(idx.docCount)))
	})
}

// Load rebuilds an Index from everything previously written by Persist.
func Load(db *badger.DB) (*Index, error) {
	idx := NewIndex()

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if len(key) == 0 {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			switch key[0] {
			case prefixPosting:
				p, err := decodePosting(val)
				if err != nil {
					return err
				}
				idx.postings[string(key[1:])] = p
			case prefixTrigram:
				p, err := decodePosting(val)
				if err != nil {
					return err
				}
				idx.trigram.postings[string(key[1:])] = p
			case prefixDocLength:
				id := binary.BigEndian.Uint64(key[1:9])
				idx.docLength[id] = int(decodeUvarint(val))
			case prefixDocText:
				id := binary.BigEndian.Uint64(key[1:9])
				idx.docText[id] = string(val)
			case prefixTermFreq:
				id := binary.BigEndian.Uint64(key[1:9])
				term := string(key[10:])
				if idx.termFreq[id] == nil {
					idx.termFreq[id] = make(map[string]int)
				}
				idx.termFreq[id][term] = int(decodeUvarint(val))
			case prefixMeta:
				switch key[1] {
				case 0x01:
					idx.totalLength = decodeUvarint(val)
				case 0x02:
					idx.docCount = int(decodeUvarint(val))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, verr.Wrap(verr.KindStorage, err, "load text index")
	}
	return idx, nil
}

// encodePosting serializes a posting as a one-byte form tag (0 = sorted
// uint64 slice, 1 = roaring64 bitmap) followed by its payload.
func encodePosting(p *posting) []byte {
	var buf bytes.Buffer
	if p.big != nil {
		buf.WriteByte(1)
		_, _ = p.big.WriteTo(&buf)
		return buf.Bytes()
	}
	buf.WriteByte(0)
	for _, id := range p.small {
		buf.Write(uint64Bytes(id))
	}
	return buf.Bytes()
}

func decodePosting(data []byte) (*posting, error) {
	if len(data) == 0 {
		return newPosting(), nil
	}
	tag, rest := data[0], data[1:]
	if tag == 1 {
		bm, err := newRoaring64FromBytes(rest)
		if err != nil {
			return nil, err
		}
		return &posting{big: bm}, nil
	}
	ids := make([]uint64, 0, len(rest)/8)
	for i := 0; i+8 <= len(rest); i += 8 {
		ids = append(ids, binary.BigEndian.Uint64(rest[i:i+8]))
	}
	return &posting{small: ids}, nil
}

func newRoaring64FromBytes(data []byte) (*roaring64.Bitmap, error) {
	bm := roaring64.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, verr.Wrap(verr.KindSerialization, err, "decode roaring64 posting")
	}
	return bm, nil
}

func encodeUvarint(v uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	return buf[:n]
}

func decodeUvarint(data []byte) uint64 {
	v, _ := binary.Uvarint(data)
	return v
}
