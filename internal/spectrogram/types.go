// SPDX-License-Identifier: MIT

// Package spectrogram turns audio samples into columns of spectral
// magnitude: a cache of already-computed columns (ResultCache) fed by a
// pool of workers (Scheduler) that pull FFT work from a pending queue
// biased toward what the display is about to need.
package spectrogram

import "spettro/internal/spectrum"

// CalcRequest names one column to compute: the playback time it
// represents and the spectral parameters in effect when it was
// requested. Two requests are the same column if SameParams reports
// true and their times fall within the cache's epsilon of each other.
type CalcRequest struct {
	Time       float64
	FFTFreq    float64
	Window     spectrum.WindowFunc
	SampleRate float64
	Speclen    int
}

// SameParams reports whether r and other were generated under the same
// spectral configuration, ignoring Time.
func (r CalcRequest) SameParams(other CalcRequest) bool {
	return r.FFTFreq == other.FFTFreq &&
		r.Window == other.Window &&
		r.SampleRate == other.SampleRate &&
		r.Speclen == other.Speclen
}

// CalcResult is a computed column: per-bin magnitude, plus the request
// parameters it was computed under (so a stale result can be
// recognised if the spectral configuration has since changed).
type CalcResult struct {
	Request    CalcRequest
	Magnitude  []float64
	Silent     bool // true if the quiet-column shortcut produced this result
}
