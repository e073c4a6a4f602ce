// SPDX-License-Identifier: MIT
package control

import (
	"fmt"
	"strings"

	"spettro/internal/spectrum"
	"spettro/internal/view"
)

// Default view parameter values used when reconstructing a flag
// string: a flag is emitted only when the live value differs from its
// default.
const (
	defaultWidth       = 800
	defaultHeight      = 480
	defaultMinFreq     = 20.0
	defaultMaxFreq     = 20000.0
	defaultDynRangeDB  = 100.0
	defaultFPS         = 25
	defaultPPSec       = 25.0
	defaultFFTFreq     = 10.0
	defaultBeatsPerBar = 4
)

// ReconstructFlags rebuilds the command-line flag string that would
// reproduce v's current, non-default parameters: `spettro <flags>
// <basename>.png`. Flags are emitted in the same order as the CLI's
// own flag set and only when the value differs from its default.
func ReconstructFlags(v *view.State, basename string) string {
	var b strings.Builder

	emit := func(flag, value string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "-%s %s", flag, value)
	}

	if v.DispWidth != defaultWidth {
		emit("w", fmt.Sprintf("%d", v.DispWidth))
	}
	if v.DispHeight != defaultHeight {
		emit("h", fmt.Sprintf("%d", v.DispHeight))
	}
	if v.MinFreq != defaultMinFreq {
		emit("n", fmt.Sprintf("%g", v.MinFreq))
	}
	if v.MaxFreq != defaultMaxFreq {
		emit("x", fmt.Sprintf("%g", v.MaxFreq))
	}
	if v.DynRangeDB != defaultDynRangeDB {
		emit("d", fmt.Sprintf("%g", v.DynRangeDB))
	}
	if v.FPS != defaultFPS {
		emit("S", fmt.Sprintf("%d", v.FPS))
	}
	if v.PixelsPerSecond != defaultPPSec {
		emit("P", fmt.Sprintf("%g", v.PixelsPerSecond))
	}
	if v.FFTFreq != defaultFFTFreq {
		emit("f", fmt.Sprintf("%g", v.FFTFreq))
	}
	if v.Window != spectrum.Hann {
		emit("W", v.Window.String())
	}
	if v.AutoBrightnessLogMax != 0 {
		emit("M", fmt.Sprintf("%g", v.AutoBrightnessLogMax))
	}
	if v.ShowPiano {
		emit("k", "")
	}
	if v.ShowStaff {
		emit("s", "")
	}
	if v.ShowGuitar {
		emit("g", "")
	}
	if v.ShowFreqAxes {
		emit("a", "")
	}
	if v.ShowTimeAxes {
		emit("A", "")
	}
	if v.LeftBarSet {
		emit("l", fmt.Sprintf("%g", v.LeftBarTime))
	}
	if v.RightBarSet {
		emit("r", fmt.Sprintf("%g", v.RightBarTime))
	}
	if v.BeatsPerBar != defaultBeatsPerBar {
		emit("b", fmt.Sprintf("%d", v.BeatsPerBar))
	}

	flags := b.String()
	if flags == "" {
		return fmt.Sprintf("spettro %s.png", basename)
	}
	return fmt.Sprintf("spettro %s %s.png", flags, basename)
}
