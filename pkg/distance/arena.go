package distance

import "sync"

// AlignedBuffer is a reusable scratch buffer for SIMD-width accumulation
// passes (see cosineTier/euclideanTier's [16]float64 accumulators, which
// are stack-allocated and need no guard; AlignedBuffer is for the rarer
// caller that wants a longer-lived, explicitly released scratch region,
// e.g. a batch-scoring loop reused across many HNSW candidate sets).
//
// A Release call (idempotent, safe to defer) always returns the backing
// slice to its pool regardless of panic, and IntoRaw transfers ownership
// out of the guard for callers whose buffer must outlive the call that
// allocated it (e.g. a result handed back across a goroutine boundary).
type AlignedBuffer struct {
	pool *sync.Pool
	buf  []float32
	live bool
}

var scratchPool = &sync.Pool{
	New: func() any { return make([]float32, 0, 4096) },
}

// NewAlignedBuffer returns a guard over a scratch []float32 of length n,
// drawn from a package-level pool.
func NewAlignedBuffer(n int) *AlignedBuffer {
	buf := scratchPool.Get().([]float32)
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
		for i := range buf {
			buf[i] = 0
		}
	}
	return &AlignedBuffer{pool: scratchPool, buf: buf, live: true}
}

// Slice returns the guarded scratch buffer. Calling Slice after Release
// returns nil.
func (g *AlignedBuffer) Slice() []float32 {
	if !g.live {
		return nil
	}
	return g.buf
}

// Release returns the buffer to the pool. Safe to call multiple times
// (idempotent) and safe to defer before a panicking section, since the
// deferred call still runs during unwind.
func (g *AlignedBuffer) Release() {
	if !g.live {
		return
	}
	g.live = false
	g.pool.Put(g.buf[:0]) //nolint:staticcheck // intentional slice-reset reuse
}

// IntoRaw detaches the backing slice from the guard, transferring
// ownership to the caller. The guard no longer releases it; the caller
// becomes responsible for the slice's lifetime (it will simply be
// garbage collected, not returned to the pool).
func (g *AlignedBuffer) IntoRaw() []float32 {
	if !g.live {
		return nil
	}
	g.live = false
	return g.buf
}
