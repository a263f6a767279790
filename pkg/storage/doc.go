// Package storage implements VelesDB's append-mostly, memory-mapped
// vector storage engine: one region per collection holding fixed-size
// (id, flags, vector) records, indexed by a 16-way sharded id->offset
// map (pkg/storage/shard) for O(1) lookup without a global lock.
//
// Records are never moved in place. A store appends under a single tail
// lock, a soft delete flips a flag bit in place, and compaction rewrites
// only the live records into a fresh region and atomically swaps it in.
// Reads are zero-copy: Get returns a VectorRef that slices the backing
// mmap directly rather than allocating a fresh []float32.
package storage

import "errors"

// Sentinel errors returned by the vector storage engine.
var (
	ErrClosed         = errors.New("storage: engine closed")
	ErrNotFound       = errors.New("storage: id not found")
	ErrAlreadyExists  = errors.New("storage: id already stored")
	ErrDimension      = errors.New("storage: vector dimension mismatch")
	ErrCompactRunning = errors.New("storage: compaction already in progress")
)
