// SPDX-License-Identifier: MIT
package compositor

import (
	"math"
	"testing"
)

func TestFreqEndpoints(t *testing.T) {
	minFreq, maxFreq := 20.0, 20000.0
	maglen := 256

	if got := Freq(0, maglen, minFreq, maxFreq); math.Abs(got-minFreq) > 1e-9 {
		t.Errorf("Freq(0) = %v, want %v", got, minFreq)
	}
	if got := Freq(maglen-1, maglen, minFreq, maxFreq); math.Abs(got-maxFreq) > 1e-6 {
		t.Errorf("Freq(maglen-1) = %v, want %v", got, maxFreq)
	}
}

func TestFreqEndpointsMatchDisplayConfiguration(t *testing.T) {
	// disp_width=640, disp_height=480, min_freq=27.5, max_freq=14080: the
	// bottom row is 27.5 Hz and the top row is 14080 Hz.
	minFreq, maxFreq := 27.5, 14080.0
	maglen := 480

	if got := Freq(0, maglen, minFreq, maxFreq); math.Abs(got-minFreq) > 1e-9 {
		t.Errorf("Freq(0) = %v, want %v", got, minFreq)
	}
	if got := Freq(maglen-1, maglen, minFreq, maxFreq); math.Abs(got-maxFreq) > 1e-9*maxFreq {
		t.Errorf("Freq(479) = %v, want %v", got, maxFreq)
	}
}

func TestInterpolateLastRowMatchesNyquistBin(t *testing.T) {
	// At the last row, specindex == maxFreq·speclen/(sampleRate/2). When
	// maxFreq == sampleRate/2 (the Nyquist frequency), specindex ==
	// speclen exactly, an exact (non-fractional) bin lookup.
	speclen := 8
	maglen := speclen + 1
	sampleRate := 2.0 * float64(speclen)
	minFreq := 1.0
	maxFreq := sampleRate / 2

	spec := make([]float64, speclen+1)
	for i := range spec {
		spec[i] = float64(i + 1)
	}

	out := make([]float64, maglen)
	Interpolate(spec, speclen, maglen, minFreq, maxFreq, sampleRate, 0, maglen-1, out)

	want := math.Log10(spec[speclen])
	if math.Abs(out[maglen-1]-want) > 1e-9 {
		t.Errorf("last row: got %v, want %v", out[maglen-1], want)
	}
}

func TestInterpolateBeyondSpeclenIsNegInf(t *testing.T) {
	speclen := 4
	maglen := 4
	spec := []float64{1, 2, 3, 4, 5}
	out := make([]float64, maglen)

	// A tiny sample rate relative to maxFreq pushes specindex well past
	// speclen for the last row.
	Interpolate(spec, speclen, maglen, 100, 100000, 1, 0, maglen-1, out)

	if !math.IsInf(out[maglen-1], -1) {
		t.Errorf("expected -Inf for out-of-range row, got %v", out[maglen-1])
	}
}
