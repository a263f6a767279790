package propindex

import "sync"

// key identifies one (label, property, value) bucket of a PropertyIndex.
type key struct {
	label    string
	property string
	value    OrderedValue
}

// PropertyIndex is an O(1)-lookup exact-match index: every (label,
// property, value) triple maps to the set of point ids holding that
// value. A plain-map equality index generalized from a single property
// map to triples, so the same index can hold entries from many labels
// and properties at once.
type PropertyIndex struct {
	mu  sync.RWMutex
	set map[key]map[uint64]struct{}
}

// New returns an empty PropertyIndex.
func New() *PropertyIndex {
	return &PropertyIndex{set: make(map[key]map[uint64]struct{})}
}

// Add records that id has value for (label, property).
func (idx *PropertyIndex) Add(label, property string, value any, id uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := key{label, property, Of(value)}
	ids, ok := idx.set[k]
	if !ok {
		ids = make(map[uint64]struct{})
		idx.set[k] = ids
	}
	ids[id] = struct{}{}
}

// Remove drops id from (label, property, value)'s bucket.
func (idx *PropertyIndex) Remove(label, property string, value any, id uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := key{label, property, Of(value)}
	ids, ok := idx.set[k]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(idx.set, k)
	}
}

// Lookup returns every id recorded under (label, property, value).
func (idx *PropertyIndex) Lookup(label, property string, value any) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids, ok := idx.set[key{label, property, Of(value)}]
	if !ok {
		return nil
	}
	out := make([]uint64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// Len returns the number of ids recorded under (label, property, value).
func (idx *PropertyIndex) Len(label, property string, value any) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.set[key{label, property, Of(value)}])
}
