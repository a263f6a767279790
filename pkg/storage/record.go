package storage

import (
	"encoding/binary"
	"unsafe"
)

// recordHeaderSize is the byte size of a record's fixed (id, flags, pad)
// header, before the D packed float32 components.
const recordHeaderSize = 8 + 4 + 4 // id u64 + flags u32 + pad u32

// Flag bits stored in a record's header.
const (
	flagDeleted uint32 = 1 << 0
)

// recordSize returns the total on-disk size of a record holding dim
// float32 components.
func recordSize(dim int) int {
	return recordHeaderSize + dim*4
}

// encodeRecord writes id, flags and vec into dst, which must be at least
// recordSize(len(vec)) bytes. The header is little-endian for stable,
// cross-host CRC/debug tooling; the vector payload is written in the
// host's native byte order so unsafeFloat32View can reinterpret it
// without a per-element copy.
func encodeRecord(dst []byte, id uint64, flags uint32, vec []float32) {
	binary.LittleEndian.PutUint64(dst[0:8], id)
	binary.LittleEndian.PutUint32(dst[8:12], flags)
	binary.LittleEndian.PutUint32(dst[12:16], 0) // pad
	if len(vec) > 0 {
		copy(dst[recordHeaderSize:], unsafeFloat32View(vec))
	}
}

// decodeRecordHeader reads the (id, flags) pair from a record's header.
func decodeRecordHeader(src []byte) (id uint64, flags uint32) {
	id = binary.LittleEndian.Uint64(src[0:8])
	flags = binary.LittleEndian.Uint32(src[8:12])
	return
}

// decodeRecordVector reads dim float32 components starting right after
// the header, returning a freshly allocated, independent slice. Only
// the tests call it; the engine reads through recordVectorView.
func decodeRecordVector(src []byte, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, recordVectorView(src, dim))
	return out
}

// recordVectorView reinterprets the dim*4 bytes following a record's
// header as a []float32 without copying — the zero-copy read path. The
// returned slice aliases src and is only valid as long as src is (i.e.
// for the duration the caller holds the owning read lock).
func recordVectorView(src []byte, dim int) []float32 {
	return unsafeBytesToFloat32(src[recordHeaderSize : recordHeaderSize+dim*4])
}

// unsafeFloat32View reinterprets a []float32 as its backing []byte,
// without copying.
func unsafeFloat32View(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

// unsafeBytesToFloat32 reinterprets a []byte as a []float32, without
// copying. b's length must be a multiple of 4.
func unsafeBytesToFloat32(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// UnsafeBytesToFloat32View reinterprets a byte slice backed by a
// MappedRegion as a []float32 without copying, for callers outside this
// package that build their own zero-copy structures directly over a
// mapped region (the HNSW index's vector store, notably). b's length
// must be a multiple of 4; the returned slice is valid only as long as
// the owning MappedRegion is not Grown or Closed.
func UnsafeBytesToFloat32View(b []byte) []float32 { return unsafeBytesToFloat32(b) }

// UnsafeFloat32ToBytesView reinterprets a []float32 as its backing
// []byte without copying, the inverse of UnsafeBytesToFloat32View, for
// writing a vector directly into a MappedRegion's byte slice.
func UnsafeFloat32ToBytesView(v []float32) []byte { return unsafeFloat32View(v) }
