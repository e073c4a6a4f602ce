// SPDX-License-Identifier: MIT
package compositor

import (
	"math"

	"spettro/internal/log"
	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/internal/view"
)

// PlaybackClock is the minimal surface Compositor needs from the audio
// device to drive scrolling — satisfied by audio.Player.GetTime.
type PlaybackClock interface {
	GetTime() float64
}

// Compositor owns the framebuffer: it scrolls it as playback advances,
// paints columns from computed spectral results, applies the
// logarithmic-frequency remap and colour map, and draws overlays.
type Compositor struct {
	backend    Backend
	cache      *spectrogram.ResultCache
	scheduler  *spectrogram.Scheduler
	palette    *Palette
	sampleRate float64

	rowOverlay    *RowOverlay
	columnOverlay *ColumnOverlay

	logmax        float64
	badColorCount int
}

// NewCompositor wires a Compositor to its framebuffer, result cache
// and scheduler. sampleRate is the audio source's sample rate, needed
// to reconstruct the CalcRequest key a given column was scheduled
// under.
func NewCompositor(backend Backend, cache *spectrogram.ResultCache, scheduler *spectrogram.Scheduler, sampleRate float64) *Compositor {
	return &Compositor{
		backend:    backend,
		cache:      cache,
		scheduler:  scheduler,
		sampleRate: sampleRate,
		palette:    NewPalette(60),
	}
}

// SetRowOverlay installs the current piano/staff/guitar row overlay,
// recomputed by the caller whenever (minFreq, maxFreq, maglen) changes.
func (c *Compositor) SetRowOverlay(o *RowOverlay) { c.rowOverlay = o }

// SetColumnOverlay installs the current bar/beat column overlay,
// recomputed by the caller whenever the bar markers change.
func (c *Compositor) SetColumnOverlay(o *ColumnOverlay) { c.columnOverlay = o }

// updateSchedulingWindow tells the scheduler and result cache the view's
// current screen span and spectral parameters, so getWork can prioritize
// on-screen columns over lookahead-margin ones and Remember can evict
// columns that scrolled out of the retained range. Called once per
// repaint/scroll before any column in the new range is painted.
func (c *Compositor) updateSchedulingWindow(v *view.State) {
	secpp := v.SecPP()
	lookahead := v.Lookahead()
	margin := float64(lookahead) * secpp

	if c.scheduler != nil {
		screenLeft := leftPixelTime(v)
		screenRight := timeAtColumn(v, v.DispWidth-1)
		c.scheduler.SetViewWindow(screenLeft, screenRight, margin, v.FFTFreq, v.Window)
	}
	if c.cache != nil {
		c.cache.SetRetentionWindow(v.CrosshairTime, float64(lookahead), v.DispWidth, secpp)
	}
}

// leftPixelTime returns the playback time shown at framebuffer column 0.
func leftPixelTime(v *view.State) float64 {
	return v.CrosshairTime - float64(v.CrosshairCol)*v.SecPP()
}

// timeAtColumn returns the playback time represented by framebuffer
// column x.
func timeAtColumn(v *view.State, x int) float64 {
	return leftPixelTime(v) + float64(x)*v.SecPP()
}

// DoScroll recomputes the crosshair time from the playback clock,
// snaps it to the secpp grid, and either blits the overlapping region
// or triggers a full repaint, per spec.
func (c *Compositor) DoScroll(v *view.State, player PlaybackClock) {
	secpp := v.SecPP()
	if secpp == 0 {
		return
	}

	rawTime := player.GetTime()
	snapped := math.Round(rawTime/secpp) * secpp

	deltaTime := snapped - v.CrosshairTime
	deltaPixels := int(math.Round(deltaTime / secpp))
	v.CrosshairTime = snapped
	c.updateSchedulingWindow(v)

	if deltaPixels == 0 {
		return
	}
	if abs(deltaPixels) >= v.DispWidth {
		c.RepaintDisplay(v, false)
		return
	}

	lookahead := v.Lookahead()
	if deltaPixels > 0 {
		// Scrolling forward: existing content shifts left.
		overlap := v.DispWidth - deltaPixels
		c.backend.Blit(0, 0, deltaPixels, 0, overlap, v.DispHeight)
		c.repaintRange(v, v.DispWidth-deltaPixels, v.DispWidth-1+lookahead, false)
	} else {
		shift := -deltaPixels
		overlap := v.DispWidth - shift
		c.backend.Blit(shift, 0, 0, 0, overlap, v.DispHeight)
		c.repaintRange(v, -lookahead, shift-1, false)
	}
	c.backend.UpdateRect(0, 0, v.DispWidth, v.DispHeight)
}

// RepaintDisplay repaints every column in [0-LOOKAHEAD, DispWidth-1+LOOKAHEAD].
// If refreshOnly, only columns already holding cached spectral data are
// repainted (the caller promises the background and bar lines have not
// changed).
func (c *Compositor) RepaintDisplay(v *view.State, refreshOnly bool) {
	c.updateSchedulingWindow(v)
	lookahead := v.Lookahead()
	c.repaintRange(v, -lookahead, v.DispWidth-1+lookahead, refreshOnly)
	c.backend.UpdateRect(0, 0, v.DispWidth, v.DispHeight)
}

func (c *Compositor) repaintRange(v *view.State, fromX, toX int, refreshOnly bool) {
	for x := fromX; x <= toX; x++ {
		c.RepaintColumn(v, x, v.MinY, v.MaxY, refreshOnly)
	}
}

// RepaintColumn repaints one framebuffer column: background if the
// column's time is before the start of the piece (negative), the
// bar-line overlay colour if overlaid, a computed column if the result
// cache already holds it, or background plus a schedule request
// otherwise. Columns past the end of the audio are not detected here;
// they are scheduled like any other column.
func (c *Compositor) RepaintColumn(v *view.State, x, fromY, toY int, refreshOnly bool) {
	t := timeAtColumn(v, x)
	if t < 0 {
		c.paintBackground(x, fromY, toY)
		return
	}

	if c.columnOverlay != nil {
		if col, thickness, ok := c.columnOverlay.At(x); ok {
			// FillRect clips to the framebuffer, so off-screen lookahead
			// columns paint nothing and a line at the edge is cut off.
			c.backend.FillRect(x-thickness/2, fromY, thickness, toY-fromY+1, col)
			return
		}
	}

	req := spectrogram.CalcRequest{
		Time:       t,
		FFTFreq:    v.FFTFreq,
		Window:     v.Window,
		SampleRate: c.sampleRate,
		Speclen:    spectrum.SpeclenFor(v.FFTFreq, c.sampleRate),
	}

	if refreshOnly {
		if !c.cache.Has(t, req) {
			return
		}
	}

	if result, ok := c.cache.Recall(t, req); ok {
		c.PaintColumn(v, x, fromY, toY, result)
		return
	}

	c.paintBackground(x, fromY, toY)
	if c.scheduler != nil {
		c.scheduler.Schedule([]spectrogram.CalcRequest{req})
	}
}

func (c *Compositor) paintBackground(x, fromY, toY int) {
	if x < 0 {
		return
	}
	c.backend.FillRect(x, fromY, 1, toY-fromY+1, RGBA{})
}

// PaintColumn maps result's linear spectrum into log-magnitude pixels
// for framebuffer column x, rows [fromY, toY], applying auto-
// brightness, the colour palette, row overlays and the crosshair
// highlight.
func (c *Compositor) PaintColumn(v *view.State, x, fromY, toY int, result spectrogram.CalcResult) {
	if x < 0 {
		return
	}

	maglen := v.MagLen()
	if result.Silent {
		c.backend.FillRect(x, fromY, 1, toY-fromY+1, RGBA{})
		return
	}

	logmag := make([]float64, toY-fromY+1)
	Interpolate(result.Magnitude, result.Request.Speclen, maglen, v.MinFreq, v.MaxFreq, result.Request.SampleRate, fromY, toY, logmag)

	colMax := c.logmax
	for _, lv := range logmag {
		if !math.IsInf(lv, 0) && !math.IsNaN(lv) && lv > colMax {
			colMax = lv
		}
	}
	if colMax > c.logmax {
		c.logmax = colMax
		v.AutoBrightnessLogMax = c.logmax
	}

	columnHadBadColor := false
	for k := fromY; k <= toY; k++ {
		logval := logmag[k-fromY]

		var pixelColor RGBA
		switch {
		case math.IsNaN(logval) || math.IsInf(logval, 0):
			pixelColor = badColor
			if !columnHadBadColor {
				c.badColorCount++
				warnBadColor(x)
				columnHadBadColor = true
			}
		default:
			valueDB := 20 * (logval - c.logmax)
			c.palette.SetDynRangeDB(v.DynRangeDB)
			pixelColor = c.palette.Color(valueDB)
		}

		if c.rowOverlay != nil {
			if overlayColor, ok := c.rowOverlay.At(k); ok {
				pixelColor = overlayColor
			}
		}

		if x == v.CrosshairCol && !v.CrosshairDisabled {
			pixelColor = invert(pixelColor)
		}

		c.backend.PutPixel(x, screenRow(k, fromY, toY, v.DispHeight), pixelColor)
	}
}

// screenRow flips the spectral row (0 = lowest frequency) to its
// on-screen y coordinate (0 = top of the framebuffer).
func screenRow(k, minY, maxY, dispHeight int) int {
	span := maxY - minY
	if span <= 0 {
		return 0
	}
	return dispHeight - 1 - (k - minY)
}

func invert(c RGBA) RGBA {
	return RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// BadColorCount returns how many non-finite magnitudes have been
// painted with the sentinel colour since the compositor was created,
// reported once per column per spec's failure-semantics note.
func (c *Compositor) BadColorCount() int { return c.badColorCount }

// LogFreqOfBin exposes spectrum.FreqOfBin for callers building a
// NoteFrequencies set (row overlay) against the engine's bin layout.
func LogFreqOfBin(bin, speclen int, sampleRate float64) float64 {
	return spectrum.FreqOfBin(bin, speclen, sampleRate)
}

func warnBadColor(x int) {
	log.Warnf("compositor: non-finite magnitude at column %d, painted sentinel colour", x)
}
