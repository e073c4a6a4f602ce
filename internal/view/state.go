// SPDX-License-Identifier: MIT

// Package view holds the single mutable ViewState that the Controller owns
// and every other component snapshots by value.
package view

import "spettro/internal/spectrum"

// State is the process-wide set of display parameters. It is mutated only
// by the Controller; every other component either reads it live (main
// thread) or receives an immutable value-snapshot (worker goroutines via
// CalcRequest) and never reads it live itself.
type State struct {
	DispWidth, DispHeight int
	CrosshairCol          int
	CrosshairTime         float64

	MinFreq, MaxFreq float64
	MinY, MaxY       int

	PixelsPerSecond float64
	FPS             int

	FFTFreq float64
	Window  spectrum.WindowFunc

	DynRangeDB           float64
	AutoBrightnessLogMax float64

	Playing bool

	// BarMarkers.
	LeftBarTime, RightBarTime float64
	LeftBarSet, RightBarSet   bool
	BeatsPerBar               int

	// Overlay/axis toggles.
	ShowPiano, ShowStaff, ShowGuitar bool
	ShowFreqAxes, ShowTimeAxes       bool
	Fullscreen                      bool
	CrosshairDisabled                bool
}

// SecPP returns the seconds-per-pixel derived value, 1/ppsec.
func (s *State) SecPP() float64 {
	if s.PixelsPerSecond == 0 {
		return 0
	}
	return 1 / s.PixelsPerSecond
}

// MagLen returns the number of pixel rows spanned by one spectrogram column.
func (s *State) MagLen() int {
	return s.MaxY - s.MinY + 1
}

// Lookahead returns the number of extra columns pre-computed on either side
// of the visible area. Computed as a fraction of display width rather than
// a fixed constant, so wide displays are not capped at a narrow value; the
// default fraction matches the 10% named in the original design.
func (s *State) Lookahead() int {
	return int(0.1 * float64(s.DispWidth))
}

// SetBarMarker applies the bar-line idempotence rule: if both markers end
// up equal, both revert to undefined.
func (s *State) SetBarMarker(left bool, t float64) {
	if left {
		s.LeftBarTime, s.LeftBarSet = t, true
	} else {
		s.RightBarTime, s.RightBarSet = t, true
	}
	if s.LeftBarSet && s.RightBarSet && s.LeftBarTime == s.RightBarTime {
		s.LeftBarSet, s.RightBarSet = false, false
	}
}

// ClearBarMarkers clears both bar markers.
func (s *State) ClearBarMarkers() {
	s.LeftBarSet, s.RightBarSet = false, false
}

// Snapshot returns a copy of the state suitable for passing into a
// CalcRequest: workers never read the live State, only a value-copy taken
// at schedule time.
func (s *State) Snapshot() State {
	return *s
}
