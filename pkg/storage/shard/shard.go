// Package shard implements VelesDB's 16-way hash-partitioned maps: Index
// (id -> mmap offset) and Mappings (external u64 id <-> internal HNSW
// index).
//
// Each map is split into 16 independently-locked partitions selected by
// `key % 16`, so hot reads on different shards proceed in parallel and a
// write only blocks the one shard it touches.
package shard

import "sync"

// NumShards is the fixed partition count used throughout the storage and
// index layers.
const NumShards = 16

func shardOf(id uint64) int { return int(id % NumShards) }

// Index is a 16-way sharded map from an external point/node id to an
// opaque offset (the mmap byte offset in vectors.dat, or any other
// uint64 payload a caller wants to shard by id).
type Index struct {
	shards [NumShards]indexShard
}

type indexShard struct {
	mu sync.RWMutex
	m  map[uint64]uint64
}

// NewIndex returns an empty, ready-to-use sharded index.
func NewIndex() *Index {
	idx := &Index{}
	for i := range idx.shards {
		idx.shards[i].m = make(map[uint64]uint64)
	}
	return idx
}

// Set records offset for id, replacing any prior value.
func (x *Index) Set(id, offset uint64) {
	s := &x.shards[shardOf(id)]
	s.mu.Lock()
	s.m[id] = offset
	s.mu.Unlock()
}

// Get returns the offset stored for id, if any.
func (x *Index) Get(id uint64) (uint64, bool) {
	s := &x.shards[shardOf(id)]
	s.mu.RLock()
	v, ok := s.m[id]
	s.mu.RUnlock()
	return v, ok
}

// Delete removes id from the index. No-op if absent.
func (x *Index) Delete(id uint64) {
	s := &x.shards[shardOf(id)]
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

// Len returns the sum of per-shard lengths.
func (x *Index) Len() int {
	n := 0
	for i := range x.shards {
		x.shards[i].mu.RLock()
		n += len(x.shards[i].m)
		x.shards[i].mu.RUnlock()
	}
	return n
}

// Keys returns every id currently indexed. The result is a snapshot: a
// concurrent writer may add or remove ids during the call, so the result
// may not correspond to any single point in time across shards.
func (x *Index) Keys() []uint64 {
	out := make([]uint64, 0, x.Len())
	for i := range x.shards {
		x.shards[i].mu.RLock()
		for k := range x.shards[i].m {
			out = append(out, k)
		}
		x.shards[i].mu.RUnlock()
	}
	return out
}

// ToMap returns a flat copy of every (id, offset) pair, the basis for a
// round trip through FromMap.
func (x *Index) ToMap() map[uint64]uint64 {
	out := make(map[uint64]uint64, x.Len())
	for i := range x.shards {
		x.shards[i].mu.RLock()
		for k, v := range x.shards[i].m {
			out[k] = v
		}
		x.shards[i].mu.RUnlock()
	}
	return out
}

// FromMap rebuilds a sharded Index from a flat map, e.g. when restoring
// from a serialized snapshot.
func FromMap(m map[uint64]uint64) *Index {
	idx := NewIndex()
	for k, v := range m {
		idx.Set(k, v)
	}
	return idx
}

// Mappings implements the external u64 <-> internal HNSW index bijection,
// sharded the same way as Index but storing both directions so
// Register/Unmap and reverse lookups are each O(1) within their shard.
type Mappings struct {
	fwd     [NumShards]mapShard // external -> internal
	rev     sync.Map            // internal -> external (single map: internal ids are dense and process-local)
	nextIdx uint64
	mu      sync.Mutex // guards nextIdx
}

type mapShard struct {
	mu sync.RWMutex
	m  map[uint64]uint64
}

// NewMappings returns an empty Mappings table.
func NewMappings() *Mappings {
	m := &Mappings{}
	for i := range m.fwd {
		m.fwd[i].m = make(map[uint64]uint64)
	}
	return m
}

// Register assigns a fresh internal index to external id, returning it.
// If id is already mapped, Register returns (0, false).
func (m *Mappings) Register(id uint64) (uint64, bool) {
	s := &m.fwd[shardOf(id)]
	s.mu.Lock()
	if _, exists := s.m[id]; exists {
		s.mu.Unlock()
		return 0, false
	}
	m.mu.Lock()
	idx := m.nextIdx
	m.nextIdx++
	m.mu.Unlock()
	s.m[id] = idx
	s.mu.Unlock()
	m.rev.Store(idx, id)
	return idx, true
}

// ExternalToInternal resolves an external id to its internal index.
func (m *Mappings) ExternalToInternal(id uint64) (uint64, bool) {
	s := &m.fwd[shardOf(id)]
	s.mu.RLock()
	idx, ok := s.m[id]
	s.mu.RUnlock()
	return idx, ok
}

// InternalToExternal resolves an internal index back to its external id.
func (m *Mappings) InternalToExternal(idx uint64) (uint64, bool) {
	v, ok := m.rev.Load(idx)
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

// Unmap removes the external id's mapping (soft delete: the vector stays
// in the graph). The internal index and its reverse entry are
// intentionally left stale-but-harmless: searches
// post-filter results by checking ExternalToInternal for the incoming
// id, not the reverse direction, so a dangling reverse entry is never
// observed as live.
func (m *Mappings) Unmap(id uint64) {
	s := &m.fwd[shardOf(id)]
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

// Len returns the number of currently-mapped external ids.
func (m *Mappings) Len() int {
	n := 0
	for i := range m.fwd {
		m.fwd[i].mu.RLock()
		n += len(m.fwd[i].m)
		m.fwd[i].mu.RUnlock()
	}
	return n
}

// NextIndex returns the next internal index that would be assigned,
// without assigning it — used when serializing the id-mapping table.
func (m *Mappings) NextIndex() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextIdx
}

// SetNextIndex restores the allocator cursor when loading a persisted
// mapping table.
func (m *Mappings) SetNextIndex(n uint64) {
	m.mu.Lock()
	m.nextIdx = n
	m.mu.Unlock()
}

// All returns every (external, internal) pair currently mapped, for
// serialization.
func (m *Mappings) All() map[uint64]uint64 {
	out := make(map[uint64]uint64, m.Len())
	for i := range m.fwd {
		m.fwd[i].mu.RLock()
		for k, v := range m.fwd[i].m {
			out[k] = v
		}
		m.fwd[i].mu.RUnlock()
	}
	return out
}

// RestoreAll repopulates both directions of the mapping table from a
// flat (external -> internal) map, as produced by All.
func (m *Mappings) RestoreAll(pairs map[uint64]uint64) {
	for ext, idx := range pairs {
		s := &m.fwd[shardOf(ext)]
		s.mu.Lock()
		s.m[ext] = idx
		s.mu.Unlock()
		m.rev.Store(idx, ext)
	}
}
