//go:build amd64

package distance

import "golang.org/x/sys/cpu"

// lanes is the number of float32 lanes the active tier processes per
// iteration: 16 for AVX-512, 8 for AVX2 (with a "wide16" double-unrolled
// pass applied by the kernels themselves when the vector is long enough),
// 4 as an SSE-equivalent floor. Probed once at package init, mirroring
// sqlite-vec's hasAVX512/hasAVX2 package vars in simd_amd64.go.
var (
	hasAVX512 = cpu.X86.HasAVX512F
	hasAVX2   = cpu.X86.HasAVX2 && cpu.X86.HasFMA
)

var lanes, activeCapability = detectTier()

func detectTier() (int, string) {
	switch {
	case hasAVX512:
		return 16, "AVX-512 (amd64)"
	case hasAVX2:
		return 8, "AVX2+FMA (amd64)"
	default:
		return 4, "SSE-equivalent (amd64)"
	}
}
