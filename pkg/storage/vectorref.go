package storage

// RefKind identifies which of the three access modes a VectorRef was
// constructed in.
type RefKind int

const (
	// RefBorrowed means data aliases the store's backing region; it is
	// only valid until Release is called (which drops the read lock the
	// slice depended on).
	RefBorrowed RefKind = iota
	// RefOwned means data is an independent copy the caller may keep and
	// mutate for as long as it wants.
	RefOwned
	// RefCopyOnWrite means data currently aliases the store but will be
	// copied the first time the caller asks to mutate it (via Mutable).
	RefCopyOnWrite
)

// VectorRef unifies borrowed, owned, and copy-on-write access to a
// vector, so callers on the hot read path (HNSW distance scoring) can
// take a zero-copy view while callers that need to hold onto a result
// past the read lock's lifetime (query result rows) can ask for an owned
// copy without the engine having to pick one strategy for everyone.
type VectorRef struct {
	kind    RefKind
	data    []float32
	release func()
}

// newBorrowedRef wraps data (which aliases the store) with a release
// callback that must run once the caller is done reading it.
func newBorrowedRef(data []float32, release func()) VectorRef {
	return VectorRef{kind: RefBorrowed, data: data, release: release}
}

// NewOwnedRef wraps an independent copy the caller already holds.
func NewOwnedRef(data []float32) VectorRef {
	return VectorRef{kind: RefOwned, data: data}
}

// newCOWRef wraps data (which aliases the store) without a release
// callback — used when the underlying bytes are known to outlive the
// read lock (e.g. a buffered, non-mmap backend where bytes() already
// returned an independent copy).
func newCOWRef(data []float32) VectorRef {
	return VectorRef{kind: RefCopyOnWrite, data: data}
}

// Kind reports which access mode this ref was constructed in.
func (r VectorRef) Kind() RefKind { return r.kind }

// Vector returns the referenced float32 slice. For RefBorrowed this
// aliases the store and must not be retained past Release.
func (r VectorRef) Vector() []float32 { return r.data }

// Release drops the read lock a RefBorrowed ref depends on. A no-op for
// RefOwned and RefCopyOnWrite. Safe to call on a zero-value VectorRef.
func (r VectorRef) Release() {
	if r.release != nil {
		r.release()
	}
}

// ToOwned returns a VectorRef guaranteed independent of the store,
// copying the backing slice unless it already owns one.
func (r VectorRef) ToOwned() VectorRef {
	if r.kind == RefOwned {
		return r
	}
	cp := make([]float32, len(r.data))
	copy(cp, r.data)
	return NewOwnedRef(cp)
}

// Mutable returns a []float32 the caller may freely write to, copying
// first if this ref currently aliases the store (RefBorrowed or
// RefCopyOnWrite).
func (r *VectorRef) Mutable() []float32 {
	if r.kind != RefOwned {
		owned := r.ToOwned()
		r.Release()
		*r = owned
	}
	return r.data
}
