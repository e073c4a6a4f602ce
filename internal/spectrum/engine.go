// SPDX-License-Identifier: MIT

// Package spectrum implements the stateless FFT kernel (real-to-
// halfcomplex) and magnitude conversion, plus the memoised window-function
// coefficient table, supporting arbitrary "good" FFT lengths and the full
// set of window functions rather than power-of-2-only, Hann-only.
package spectrum

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// goodFactors are the prime factors an efficient FFT size may use, besides
// an optional single factor of 11 or 13.
var goodFactors = [...]int{2, 3, 5, 7}

// isGoodLength reports whether n factors as 2^a·3^b·5^c·7^d·{1, 11 or 13},
// never both 11 and 13.
func isGoodLength(n int) bool {
	if n <= 0 {
		return false
	}
	remaining := n
	for _, f := range goodFactors {
		for remaining%f == 0 {
			remaining /= f
		}
	}
	switch remaining {
	case 1, 11, 13:
		return true
	default:
		return false
	}
}

// SpeclenFor picks the smallest speclen ≈ sampleRate/(2·fftFreq) such that
// 2·speclen is an efficient FFT size. Searches outward from the ideal
// value, preferring the next-higher candidate over the next-lower one on
// ties.
func SpeclenFor(fftFreq, sampleRate float64) int {
	ideal := sampleRate / (2 * fftFreq)
	idealRounded := int(math.Round(ideal))
	if idealRounded < 1 {
		idealRounded = 1
	}

	for delta := 0; ; delta++ {
		hi := idealRounded + delta
		lo := idealRounded - delta
		if hi >= 1 && isGoodLength(2*hi) {
			return hi
		}
		if delta > 0 && lo >= 1 && isGoodLength(2*lo) {
			return lo
		}
		if lo < 1 && hi > idealRounded+1_000_000 {
			// Defensive bound; a good length always exists well within
			// this range since every power of two qualifies.
			return hi
		}
	}
}

// planCache memoises *fourier.FFT plans keyed by FFT size (2·speclen).
// Construction is serialized by mu, since plan creation is not safe to
// race; Coefficients execution itself is concurrency-safe per gonum and
// is not held under this lock.
type planCache struct {
	mu    sync.Mutex
	plans map[int]*fourier.FFT
}

var plans = &planCache{plans: make(map[int]*fourier.FFT)}

func (c *planCache) get(fftSize int) *fourier.FFT {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.plans[fftSize]; ok {
		return p
	}
	p := fourier.NewFFT(fftSize)
	c.plans[fftSize] = p
	return p
}

// Engine is the stateless FFT kernel: for a given (speclen, window) it
// produces the magnitude spectrum of a centred audio window. Engine itself
// holds no per-call state; workers may share a single Engine value.
type Engine struct {
	windows *WindowTable
}

// NewEngine returns an Engine backed by the given window table.
func NewEngine(windows *WindowTable) *Engine {
	return &Engine{windows: windows}
}

// Compute multiplies audio[0:2*speclen] by the window coefficients for fn
// (skipped for Rectangular, since multiplying by an all-ones window is a
// wasted pass), performs a forward real→complex FFT, and writes
// magnitudes into out[0:speclen+1].
// audio and out must be exactly sized for the given speclen; scratch is an
// optional pre-allocated complex128 buffer of length speclen+1 reused
// across calls to avoid allocation (allocated internally if nil).
func (e *Engine) Compute(audio []float64, fn WindowFunc, speclen int, out []float64, scratch []complex128) error {
	fftSize := 2 * speclen
	if len(audio) != fftSize {
		return fmt.Errorf("spectrum: audio input length %d does not match 2*speclen (%d)", len(audio), fftSize)
	}
	if len(out) != speclen+1 {
		return fmt.Errorf("spectrum: output length %d does not match speclen+1 (%d)", len(out), speclen+1)
	}

	windowed := audio
	if fn != Rectangular {
		entry := e.windows.Get(fn, fftSize)
		windowed = make([]float64, fftSize)
		for i := range windowed {
			windowed[i] = audio[i] * entry.Coeffs[i]
		}
	}

	if scratch == nil || len(scratch) != speclen+1 {
		scratch = make([]complex128, speclen+1)
	}

	plan := plans.get(fftSize)
	plan.Coefficients(scratch, windowed)

	out[0] = math.Abs(real(scratch[0]))
	for k := 1; k < speclen; k++ {
		out[k] = math.Hypot(real(scratch[k]), imag(scratch[k]))
	}
	out[speclen] = math.Abs(real(scratch[speclen]))

	return nil
}

// FreqOfBin returns the frequency in Hz of the given FFT bin, given the
// sample rate and speclen used to produce it.
func FreqOfBin(bin, speclen int, sampleRate float64) float64 {
	return float64(bin) * (sampleRate / 2) / float64(speclen)
}
