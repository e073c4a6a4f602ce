// SPDX-License-Identifier: MIT
package spectrogram

import "math"

// quietThreshold is the mean-square amplitude below which a column is
// treated as silence and skips FFT computation entirely.
const quietThreshold = 1e-9

// IsSilent reports whether samples are quiet enough to skip spectral
// analysis, checked via a single comparison against the accumulated
// energy rather than a per-sample branch, shortcutting a column's
// computation entirely.
func IsSilent(samples []float32) bool {
	if len(samples) == 0 {
		return true
	}

	var energy float64
	for _, s := range samples {
		v := float64(absFloat32(s))
		energy += v * v
	}
	return energy/float64(len(samples)) < quietThreshold
}

func absFloat32(x float32) float32 {
	return math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
}
