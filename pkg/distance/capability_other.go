//go:build !amd64 && !arm64

package distance

// lanes falls back to a scalar loop on platforms without a dedicated
// capability probe, matching sqlite-vec's simd_generic.go.
var (
	lanes            = 1
	activeCapability = "scalar (generic)"
)
