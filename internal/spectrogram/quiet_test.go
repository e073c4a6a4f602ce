// SPDX-License-Identifier: MIT
package spectrogram

import (
	"math"
	"testing"
)

func TestIsSilentEmpty(t *testing.T) {
	if !IsSilent(nil) {
		t.Error("empty buffer should be treated as silent")
	}
}

func TestIsSilentQuietBuffer(t *testing.T) {
	samples := make([]float32, 1024)
	if !IsSilent(samples) {
		t.Error("all-zero buffer should be silent")
	}
}

func TestIsSilentLoudBuffer(t *testing.T) {
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * float64(i) / 64))
	}
	if IsSilent(samples) {
		t.Error("full-scale sine wave should not be silent")
	}
}

func TestIsSilentBelowThreshold(t *testing.T) {
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = 1e-6
	}
	if !IsSilent(samples) {
		t.Error("buffer with negligible amplitude should be silent")
	}
}
