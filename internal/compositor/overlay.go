// SPDX-License-Identifier: MIT
package compositor

import "math"

var (
	overlayWhite = RGBA{R: 255, G: 255, B: 255}
	overlayBlack = RGBA{R: 0, G: 0, B: 0}
)

// pianoKeyIsBlack reports whether MIDI-relative semitone class is a
// black key on a piano, used to colour row-overlay lines.
func pianoKeyIsBlack(semitoneClass int) bool {
	switch ((semitoneClass % 12) + 12) % 12 {
	case 1, 3, 6, 8, 10:
		return true
	default:
		return false
	}
}

// RowOverlay marks which framebuffer rows carry a note-frequency
// overlay line (piano key rows, or plain staff/guitar lines), and
// their thickness and colour. Recomputed whenever (minFreq, maxFreq,
// maglen) changes, per the row-overlay policy.
type RowOverlay struct {
	rows map[int]rowMark
}

type rowMark struct {
	color     RGBA
	thickness int
}

// NoteFrequencies lists the target note frequencies for one overlay
// kind (piano keys, or staff/guitar reference lines).
type NoteFrequencies struct {
	Freqs   []float64
	IsPiano bool // piano key colouring (black/white) vs. plain white lines
}

// BuildRowOverlay computes which framebuffer rows carry which overlay
// lines, given the active overlay sets and the view's frequency range.
// When piano lines are shown alongside staff/guitar lines, the latter
// widen to three pixels thick, per spec.
func BuildRowOverlay(sets []NoteFrequencies, minFreq, maxFreq float64, maglen int) *RowOverlay {
	hasPiano := false
	for _, s := range sets {
		if s.IsPiano {
			hasPiano = true
		}
	}

	o := &RowOverlay{rows: make(map[int]rowMark)}
	for _, s := range sets {
		thickness := 1
		if !s.IsPiano && hasPiano {
			thickness = 3
		}
		for i, f := range s.Freqs {
			row := freqToMagIndex(f, minFreq, maxFreq, maglen)
			if row < 0 || row >= maglen {
				continue
			}
			c := overlayWhite
			if s.IsPiano {
				if pianoKeyIsBlack(i) {
					c = overlayBlack
				} else {
					c = overlayWhite
				}
			}
			o.rows[row] = rowMark{color: c, thickness: thickness}
		}
	}
	return o
}

// freqToMagIndex maps a frequency to its framebuffer row:
// round((ln f − ln minFreq)/(ln maxFreq − ln minFreq) · (maglen-1)).
func freqToMagIndex(f, minFreq, maxFreq float64, maglen int) int {
	if maxFreq <= minFreq || f <= 0 {
		return -1
	}
	t := (math.Log(f) - math.Log(minFreq)) / (math.Log(maxFreq) - math.Log(minFreq))
	return int(math.Round(t * float64(maglen-1)))
}

// At returns the overlay colour for row y, if any row within its
// thickness band covers y.
func (o *RowOverlay) At(y int) (RGBA, bool) {
	for row, mark := range o.rows {
		half := mark.thickness / 2
		if y >= row-half && y <= row+half {
			return mark.color, true
		}
	}
	return RGBA{}, false
}

// ColumnOverlay computes which framebuffer columns carry a bar or
// beat line, per the column-overlay policy: neither marker set means
// no lines; one marker means a single line; both set and equal clears
// both; both set and distinct paints a line at every multiple of their
// spacing (plus interior beat lines when beatsPerBar > 1).
type ColumnOverlay struct {
	cols map[int]int // column -> thickness (1 for beat line, 3 for bar line)
}

// BuildColumnOverlay computes the bar/beat line columns for the given
// time range and pixels-per-second, following spec's bar-line policy.
func BuildColumnOverlay(leftSet, rightSet bool, leftTime, rightTime float64, beatsPerBar int, dispWidth int, leftPixelTime float64, pixelsPerSecond float64) *ColumnOverlay {
	o := &ColumnOverlay{cols: make(map[int]int)}

	toCol := func(t float64) int {
		return int(math.Round((t - leftPixelTime) * pixelsPerSecond))
	}

	switch {
	case !leftSet && !rightSet:
		return o
	case leftSet && !rightSet:
		o.cols[toCol(leftTime)] = 1
		return o
	case !leftSet && rightSet:
		o.cols[toCol(rightTime)] = 1
		return o
	case leftTime == rightTime:
		return o
	}

	spacing := rightTime - leftTime
	if spacing < 0 {
		spacing = -spacing
	}
	if spacing == 0 {
		return o
	}

	barWidth := spacing
	phase := math.Mod(leftTime, barWidth)
	if phase < 0 {
		phase += barWidth
	}

	thickness := 1
	if beatsPerBar > 1 {
		thickness = 3
	}

	startTime := leftPixelTime - barWidth
	endTime := leftPixelTime + float64(dispWidth)/pixelsPerSecond + barWidth
	for t := firstBarAt(startTime, phase, barWidth); t <= endTime; t += barWidth {
		o.cols[toCol(t)] = thickness
		if beatsPerBar > 1 {
			for n := 1; n < beatsPerBar; n++ {
				beatTime := t + float64(n)*(rightTime-leftTime)/float64(beatsPerBar)
				if _, exists := o.cols[toCol(beatTime)]; !exists {
					o.cols[toCol(beatTime)] = 1
				}
			}
		}
	}
	return o
}

func firstBarAt(start, phase, barWidth float64) float64 {
	n := math.Floor((start - phase) / barWidth)
	return phase + n*barWidth
}

// At returns the overlay colour and thickness for column x, if a
// bar/beat line covers it (all column-overlay lines are white; bar
// lines are 3 pixels wide when beatsPerBar > 1, beat lines always 1).
func (o *ColumnOverlay) At(x int) (RGBA, int, bool) {
	if thickness, ok := o.cols[x]; ok {
		return overlayWhite, thickness, true
	}
	return RGBA{}, 0, false
}
