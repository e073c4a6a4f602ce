// SPDX-License-Identifier: MIT
package compositor

import (
	"testing"

	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/internal/view"
)

func newTestCompositor(backend Backend) *Compositor {
	cache := spectrogram.NewResultCache()
	return NewCompositor(backend, cache, nil, 44100)
}

func newTestView() *view.State {
	return &view.State{
		DispWidth:       64,
		DispHeight:      32,
		CrosshairCol:    32,
		CrosshairTime:   10.0,
		MinFreq:         20,
		MaxFreq:         20000,
		MinY:            0,
		MaxY:            31,
		PixelsPerSecond: 100,
		FPS:             30,
		FFTFreq:         20,
		Window:          spectrum.Hann,
		DynRangeDB:      60,
	}
}

func TestRepaintColumnOffPieceIsBackground(t *testing.T) {
	backend := NewRasterBackend(64, 32)
	c := newTestCompositor(backend)
	v := newTestView()
	v.CrosshairTime = 0 // column far to the left maps to negative time

	c.RepaintColumn(v, 0, v.MinY, v.MaxY, false)
	for y := 0; y < 32; y++ {
		if backend.pixels[backend.index(0, y)] != (RGBA{}) {
			t.Fatalf("expected background colour off-piece, got %+v", backend.pixels[backend.index(0, y)])
		}
	}
}

func TestRepaintColumnSchedulesMissingWork(t *testing.T) {
	cache := spectrogram.NewResultCache()
	backend := NewRasterBackend(64, 32)
	sched := spectrogram.NewScheduler(cache, spectrum.NewEngine(spectrum.NewWindowTable()), nil) // not started

	c := NewCompositor(backend, cache, sched, 44100)
	v := newTestView()

	// Column 32 is the crosshair column (t = 10.0); the cache is empty,
	// so the column is painted as background and one request is queued.
	c.RepaintColumn(v, 32, v.MinY, v.MaxY, false)
	if pending, _ := sched.Stats(); pending != 1 {
		t.Errorf("pending after RepaintColumn = %d, want 1", pending)
	}
}

func TestScrollIdentity(t *testing.T) {
	backend := NewRasterBackend(64, 32)
	c := newTestCompositor(backend)
	v := newTestView()

	// Paint a distinguishable pattern across the whole row.
	for x := 0; x < 64; x++ {
		backend.PutPixel(x, 0, RGBA{R: uint8(x)})
	}
	before := make([]RGBA, 64)
	copy(before, backend.pixels[:64])

	const n = 5
	backend.Blit(0, 0, n, 0, 64-n, 1)
	backend.Blit(n, 0, 0, 0, 64-n, 1)

	for x := n; x < 64-n; x++ {
		if backend.pixels[backend.index(x, 0)] != before[x] {
			t.Errorf("pixel %d changed after scroll +%d/-%d: got %+v, want %+v",
				x, n, n, backend.pixels[backend.index(x, 0)], before[x])
		}
	}
}

func TestBarLineIdempotenceViaViewState(t *testing.T) {
	v := newTestView()
	v.SetBarMarker(true, 5.0)
	v.SetBarMarker(false, 5.0)

	if v.LeftBarSet || v.RightBarSet {
		t.Error("setting both markers to the same time should leave both undefined")
	}
}
