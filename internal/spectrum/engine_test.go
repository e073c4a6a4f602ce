// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"testing"
)

func TestSpeclenForPicksEfficientLength(t *testing.T) {
	// 10s @ 44100Hz mono, fft_freq=5: ideal speclen = 44100/(2*5) = 4410
	// = 2·3²·5·7², so 8820 = 2²·3²·5·7² is already good and no search is
	// needed.
	got := SpeclenFor(5, 44100)
	if got != 4410 {
		t.Errorf("SpeclenFor(5, 44100) = %d, want 4410", got)
	}
	if !isGoodLength(2 * got) {
		t.Errorf("2*SpeclenFor(5, 44100) = %d is not a good FFT length", 2*got)
	}
}

func TestSpeclenForAlwaysReturnsGoodLength(t *testing.T) {
	for _, fftFreq := range []float64{1, 3, 5, 10, 17, 50, 123} {
		speclen := SpeclenFor(fftFreq, 44100)
		if speclen < 1 {
			t.Fatalf("SpeclenFor(%v, 44100) = %d, want >= 1", fftFreq, speclen)
		}
		if !isGoodLength(2 * speclen) {
			t.Errorf("SpeclenFor(%v, 44100) = %d: 2*speclen=%d is not a good FFT length", fftFreq, speclen, 2*speclen)
		}
	}
}

func TestComputeDCTermMatchesWindowedSum(t *testing.T) {
	speclen := SpeclenFor(5, 44100)
	fftSize := 2 * speclen

	audio := make([]float64, fftSize)
	for i := range audio {
		audio[i] = 1.0 // constant signal: DC term equals the windowed coefficient sum
	}

	windows := NewWindowTable()
	engine := NewEngine(windows)

	out := make([]float64, speclen+1)
	if err := engine.Compute(audio, Kaiser, speclen, out, nil); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	entry := windows.Get(Kaiser, fftSize)
	var want float64
	for _, c := range entry.Coeffs {
		want += c
	}

	if diff := math.Abs(out[0] - want); diff > 1e-6*math.Abs(want) {
		t.Errorf("spec[0] = %v, want %v (sum of Kaiser-windowed constant signal)", out[0], want)
	}
}

func TestComputeRejectsMismatchedLengths(t *testing.T) {
	windows := NewWindowTable()
	engine := NewEngine(windows)

	out := make([]float64, 5)
	if err := engine.Compute(make([]float64, 4), Hann, 4, out, nil); err == nil {
		t.Error("expected error for mismatched audio length, got nil")
	}

	audio := make([]float64, 8)
	if err := engine.Compute(audio, Hann, 4, make([]float64, 3), nil); err == nil {
		t.Error("expected error for mismatched output length, got nil")
	}
}

func TestFreqOfBinEndpoints(t *testing.T) {
	speclen := 512
	sampleRate := 44100.0

	if got := FreqOfBin(0, speclen, sampleRate); got != 0 {
		t.Errorf("FreqOfBin(0) = %v, want 0", got)
	}
	if got, want := FreqOfBin(speclen, speclen, sampleRate), sampleRate/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("FreqOfBin(speclen) = %v, want %v (Nyquist)", got, want)
	}
}
