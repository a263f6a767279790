package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cyberlife-coder/velesdb/internal/workerpool"
	"github.com/cyberlife-coder/velesdb/pkg/storage/shard"
)

// initialCapacityRecords is how many records' worth of space a fresh
// store reserves before its first append, so early inserts don't each
// trigger their own file growth.
const initialCapacityRecords = 64

// growthFactor is how aggressively the backing region grows when an
// append would overflow it: double capacity, not just enough for one
// more record, so bulk loads amortize the grow/remap cost.
const growthFactor = 2

// Store is VelesDB's append-mostly, memory-mapped vector storage engine
// for one collection. Every record is (id, flags, D float32 components);
// ids map to byte offsets through a 16-way sharded index so hot reads on
// different ids never contend.
type Store struct {
	dim  int
	path string

	mu    sync.RWMutex // guards file/tail growth and compaction
	file  mappedFile
	tail  int // first unused byte offset
	index *shard.Index

	live    atomic.Int64
	deleted atomic.Int64
	closed  atomic.Bool

	pool *workerpool.Pool
}

// Open opens (creating if absent) the vector region at path for vectors
// of the given dimension, and loads its id->offset index by scanning
// existing records.
func Open(path string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("storage: dimension must be positive, got %d", dim)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	rs := recordSize(dim)
	f, err := openMappedFile(path, rs*initialCapacityRecords)
	if err != nil {
		return nil, err
	}
	s := &Store{
		dim:   dim,
		path:  path,
		file:  f,
		index: shard.NewIndex(),
		pool:  workerpool.New(workerpool.DefaultConfig()),
	}
	s.scanExisting()
	return s, nil
}

// scanExisting walks every record currently in the backing file, past
// the last one that holds nonzero bytes or a live id, rebuilding the
// sharded index and tail offset. A freshly truncated/grown file is
// zero-filled, so a record with id==0 and flags==0 at the scan cursor
// marks the end of previously written data.
func (s *Store) scanExisting() {
	rs := recordSize(s.dim)
	data := s.file.bytes()
	off := 0
	for off+rs <= len(data) {
		id, flags := decodeRecordHeader(data[off : off+rs])
		if id == 0 && flags == 0 && off > 0 {
			// Heuristic end-of-data marker: a never-written record.
			// id 0 is reserved (VelesDB's public id space starts at 1)
			// precisely so this scan can distinguish real data from the
			// zero-filled tail left by grow.
			break
		}
		s.index.Set(id, uint64(off))
		if flags&flagDeleted != 0 {
			s.deleted.Add(1)
		} else {
			s.live.Add(1)
		}
		off += rs
	}
	s.tail = off
}

// Dimension returns the configured vector width.
func (s *Store) Dimension() int { return s.dim }

// Store appends a new record for id. Returns ErrAlreadyExists if id is
// already present (use Delete then Store again to replace).
func (s *Store) Store(id uint64, vec []float32) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(vec) != s.dim {
		return fmt.Errorf("%w: want %d, got %d", ErrDimension, s.dim, len(vec))
	}
	if _, exists := s.index.Get(id); exists {
		return ErrAlreadyExists
	}

	rs := recordSize(s.dim)
	s.mu.Lock()
	off := s.tail
	if err := s.growLocked(off + rs); err != nil {
		s.mu.Unlock()
		return err
	}
	encodeRecord(s.file.bytes()[off:off+rs], id, 0, vec)
	s.tail = off + rs
	s.mu.Unlock()

	s.index.Set(id, uint64(off))
	s.live.Add(1)
	return nil
}

// growLocked grows the backing region to at least need bytes, doubling
// current capacity (or the initial reservation) rather than growing
// exactly to need, so repeated small appends amortize the remap cost.
// Callers must hold s.mu for writing.
func (s *Store) growLocked(need int) error {
	curCap := len(s.file.bytes())
	if need <= curCap {
		return nil
	}
	target := curCap
	if target == 0 {
		target = recordSize(s.dim) * initialCapacityRecords
	}
	for target < need {
		target *= growthFactor
	}
	return s.file.grow(target)
}

// ReserveCapacity pre-grows the backing region to hold at least n more
// records without remapping on every insert — the bulk-import fast path.
func (s *Store) ReserveCapacity(n int) error {
	if s.closed.Load() {
		return ErrClosed
	}
	rs := recordSize(s.dim)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.growLocked(s.tail + rs*n)
}

// Get returns a zero-copy VectorRef for id. The caller must call
// Release on the returned ref once done reading it.
func (s *Store) Get(id uint64) (VectorRef, error) {
	if s.closed.Load() {
		return VectorRef{}, ErrClosed
	}
	off, ok := s.index.Get(id)
	if !ok {
		return VectorRef{}, ErrNotFound
	}
	rs := recordSize(s.dim)
	s.mu.RLock()
	data := s.file.bytes()
	if int(off)+rs > len(data) {
		s.mu.RUnlock()
		return VectorRef{}, ErrNotFound
	}
	_, flags := decodeRecordHeader(data[off : int(off)+rs])
	if flags&flagDeleted != 0 {
		s.mu.RUnlock()
		return VectorRef{}, ErrNotFound
	}
	vec := recordVectorView(data[off:int(off)+rs], s.dim)
	released := false
	release := func() {
		if !released {
			released = true
			s.mu.RUnlock()
		}
	}
	return newBorrowedRef(vec, release), nil
}

// Delete soft-deletes id: the flag bit is flipped in place and the
// vector's bytes stay where they are until the next Compact.
func (s *Store) Delete(id uint64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	off, ok := s.index.Get(id)
	if !ok {
		return ErrNotFound
	}
	rs := recordSize(s.dim)
	s.mu.Lock()
	data := s.file.bytes()
	if int(off)+rs > len(data) {
		s.mu.Unlock()
		return ErrNotFound
	}
	_, flags := decodeRecordHeader(data[off : int(off)+rs])
	if flags&flagDeleted != 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	flags |= flagDeleted
	// Rewrite only the flags word; id and vector bytes are untouched.
	rewriteFlags(data[off:int(off)+rs], flags)
	s.mu.Unlock()

	s.index.Delete(id)
	s.deleted.Add(1)
	s.live.Add(-1)
	return nil
}

// Len returns the number of live (non-deleted) vectors.
func (s *Store) Len() int { return int(s.live.Load()) }

// DeletedLen returns the number of soft-deleted records still occupying
// space, the signal a caller uses to decide whether to Compact.
func (s *Store) DeletedLen() int { return int(s.deleted.Load()) }

// Flush issues msync on the backing region.
func (s *Store) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.sync()
}

// Compact rewrites only live records into a fresh file, remaps every
// surviving id's offset, and truncates away the reclaimed space. Runs
// under an exclusive lock: no concurrent Get/Store/Delete may proceed.
func (s *Store) Compact() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := recordSize(s.dim)
	tmpPath := s.path + ".compact.tmp"
	newFile, err := openMappedFile(tmpPath, rs*initialCapacityRecords)
	if err != nil {
		return err
	}

	newIndex := shard.NewIndex()
	data := s.file.bytes()
	newOff := 0
	for off := 0; off+rs <= s.tail; off += rs {
		rec := data[off : off+rs]
		id, flags := decodeRecordHeader(rec)
		if flags&flagDeleted != 0 {
			continue
		}
		if err := newFile.grow(newOff + rs); err != nil {
			newFile.close()
			os.Remove(tmpPath)
			return err
		}
		copy(newFile.bytes()[newOff:newOff+rs], rec)
		newIndex.Set(id, uint64(newOff))
		newOff += rs
	}

	if err := newFile.sync(); err != nil {
		newFile.close()
		os.Remove(tmpPath)
		return err
	}
	if err := s.file.close(); err != nil {
		newFile.close()
		os.Remove(tmpPath)
		return err
	}
	if err := newFile.close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("storage: rename compacted file: %w", err)
	}

	reopened, err := openMappedFile(s.path, 0)
	if err != nil {
		return err
	}
	s.file = reopened
	s.index = newIndex
	s.tail = newOff
	s.deleted.Store(0)
	return nil
}

// Close flushes and releases the backing region.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.pool.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.close()
}

// StoreAsync dispatches Store onto the engine's worker pool so a
// cooperative caller's own goroutine is never held for the append.
func (s *Store) StoreAsync(ctx context.Context, id uint64, vec []float32) error {
	return s.pool.Run(ctx, func() error { return s.Store(id, vec) })
}

// CompactAsync dispatches Compact onto the engine's worker pool.
func (s *Store) CompactAsync(ctx context.Context) error {
	return s.pool.Run(ctx, s.Compact)
}

// FlushAsync dispatches Flush onto the engine's worker pool.
func (s *Store) FlushAsync(ctx context.Context) error {
	return s.pool.Run(ctx, s.Flush)
}

// rewriteFlags updates only a record's flags word in place. encodeRecord
// with a nil vec touches just the header, leaving the vector bytes that
// follow untouched.
func rewriteFlags(rec []byte, flags uint32) {
	id, _ := decodeRecordHeader(rec)
	encodeRecord(rec, id, flags, nil)
}
