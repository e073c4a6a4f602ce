// SPDX-License-Identifier: MIT
package compositor

// badColor is the sentinel painted for a non-finite magnitude lookup,
// so a broken column is visible rather than silently blank.
var badColor = RGBA{R: 255, G: 0, B: 255}

// Palette maps a dB value in [-dynRangeDB, 0] to a display colour.
// The default implements a heat-map: black at the floor, rising
// through blue/green/yellow to white at 0 dB.
type Palette struct {
	dynRangeDB float64
	stops      [][3]uint8
}

// NewPalette returns the default heat-map palette for the given
// dynamic range in dB.
func NewPalette(dynRangeDB float64) *Palette {
	return &Palette{
		dynRangeDB: dynRangeDB,
		stops: [][3]uint8{
			{0, 0, 0},
			{0, 0, 128},
			{0, 128, 255},
			{0, 255, 128},
			{255, 255, 0},
			{255, 255, 255},
		},
	}
}

// SetDynRangeDB updates the dB span the palette covers.
func (p *Palette) SetDynRangeDB(dynRangeDB float64) {
	p.dynRangeDB = dynRangeDB
}

// Color maps valueDB (≤ 0) to a colour. NaN/Inf magnitudes are not
// passed here directly — the caller substitutes badColor before
// calling Color, per paint_column's "bad colour" sentinel policy.
func (p *Palette) Color(valueDB float64) RGBA {
	if p.dynRangeDB <= 0 {
		return rgbFromStop(p.stops[len(p.stops)-1])
	}

	t := 1 + valueDB/p.dynRangeDB // 0 at floor, 1 at 0 dB
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	segments := len(p.stops) - 1
	pos := t * float64(segments)
	seg := int(pos)
	if seg >= segments {
		seg = segments - 1
	}
	frac := pos - float64(seg)

	a, b := p.stops[seg], p.stops[seg+1]
	return RGBA{
		R: lerp8(a[0], b[0], frac),
		G: lerp8(a[1], b[1], frac),
		B: lerp8(a[2], b[2], frac),
	}
}

func rgbFromStop(s [3]uint8) RGBA {
	return RGBA{R: s[0], G: s[1], B: s[2]}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
