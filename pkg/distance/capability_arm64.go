//go:build arm64

package distance

import "golang.org/x/sys/cpu"

// lanes mirrors capability_amd64.go's tiering but for arm64, following
// sqlite-vec's simd_arm64.go (dotProductNEON gated on cpu support and
// n>=16).
var lanes, activeCapability = detectTier()

func detectTier() (int, string) {
	if cpu.ARM64.HasASIMD {
		return 4, "NEON (arm64)"
	}
	return 1, "scalar (arm64)"
}
