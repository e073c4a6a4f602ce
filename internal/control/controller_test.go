// SPDX-License-Identifier: MIT
package control

import (
	"errors"
	"testing"

	"spettro/internal/compositor"
	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/internal/view"
)

func newTestSetup() (*view.State, *spectrogram.Scheduler, *compositor.Compositor) {
	v := &view.State{
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
		BeatsPerBar:     4,
	}
	cache := spectrogram.NewResultCache()
	engine := spectrum.NewEngine(spectrum.NewWindowTable())
	sched := spectrogram.NewScheduler(cache, engine, nil)
	backend := compositor.NewRasterBackend(64, 32)
	comp := compositor.NewCompositor(backend, cache, sched, 44100)
	return v, sched, comp
}

type fakePlayer struct {
	started, stopped bool
	paused           bool
	startErr         error
}

func (p *fakePlayer) Start() error {
	if p.startErr != nil {
		return p.startErr
	}
	p.started = true
	return nil
}
func (p *fakePlayer) Stop() error    { p.stopped = true; return nil }
func (p *fakePlayer) Pause(b bool)   { p.paused = b }

func TestFFTFreqChangeUpdatesView(t *testing.T) {
	v, sched, comp := newTestSetup()
	sched.Schedule([]spectrogram.CalcRequest{{Time: 1, FFTFreq: 20, Window: spectrum.Hann, SampleRate: 44100, Speclen: 64}})
	c := NewController(v, sched, comp, nil, 44100)

	c.SetFFTFreq(30)

	if v.FFTFreq != 30 {
		t.Errorf("FFTFreq = %v, want 30", v.FFTFreq)
	}
}

func TestSetDynRangeUpdatesView(t *testing.T) {
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	c.SetDynRange(80)
	if v.DynRangeDB != 80 {
		t.Errorf("DynRangeDB = %v, want 80", v.DynRangeDB)
	}
}

func TestZoomTimeHalvingHalvesPixelsPerSecond(t *testing.T) {
	// The scheduler is not started: newTestSetup gives it no audio
	// cache, so a worker would have nothing to read from.
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	oldPPS := v.PixelsPerSecond
	c.ZoomTime(0.5)

	if v.PixelsPerSecond != oldPPS*0.5 {
		t.Errorf("PixelsPerSecond = %v, want %v", v.PixelsPerSecond, oldPPS*0.5)
	}
}

func TestZoomTimeDropsRequestsOffTheNewGrid(t *testing.T) {
	v, sched, _ := newTestSetup()
	v.PixelsPerSecond = 100 // secpp = 0.01
	// A compositor with no scheduler, so the repaint that follows the
	// zoom adds no requests of its own and only the two below count.
	comp := compositor.NewCompositor(compositor.NewRasterBackend(64, 32), spectrogram.NewResultCache(), nil, 44100)

	onGrid := spectrogram.CalcRequest{Time: 1.0, FFTFreq: 20, Window: spectrum.Hann, SampleRate: 44100, Speclen: 64}
	offGrid := spectrogram.CalcRequest{Time: 1.005, FFTFreq: 20, Window: spectrum.Hann, SampleRate: 44100, Speclen: 64}
	sched.Schedule([]spectrogram.CalcRequest{onGrid, offGrid})

	c := NewController(v, sched, comp, nil, 44100)
	c.ZoomTime(0.5) // halves ppsec to 50, doubling secpp to 0.02

	pending, _ := sched.Stats()
	if pending != 1 {
		t.Errorf("pending after ZoomTime halving = %d, want 1 (only the on-grid request survives)", pending)
	}
}

func TestPanFreqPreservesRatio(t *testing.T) {
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	oldRatio := v.MaxFreq / v.MinFreq
	c.PanFreq(2.0)
	newRatio := v.MaxFreq / v.MinFreq

	if diff := oldRatio - newRatio; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("PanFreq changed the min/max ratio: %v -> %v", oldRatio, newRatio)
	}
	if v.MinFreq != 40 {
		t.Errorf("MinFreq = %v, want 40", v.MinFreq)
	}
}

func TestBarMarkerIdempotence(t *testing.T) {
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	c.SetBarMarker(true, 5.0)
	c.SetBarMarker(false, 5.0)

	if v.LeftBarSet || v.RightBarSet {
		t.Error("equal left/right markers should clear both")
	}
}

func TestPlaybackToggleStartsAndPauses(t *testing.T) {
	v, sched, comp := newTestSetup()
	player := &fakePlayer{}
	c := NewController(v, sched, comp, player, 44100)

	c.Playback(PlaybackToggle)
	if !player.started || !v.Playing {
		t.Fatal("expected playback to start")
	}

	c.Playback(PlaybackToggle)
	if !player.paused || v.Playing {
		t.Error("expected second toggle to pause playback")
	}
}

func TestPlaybackStartErrorLeavesStateUnplaying(t *testing.T) {
	v, sched, comp := newTestSetup()
	player := &fakePlayer{startErr: errors.New("device busy")}
	c := NewController(v, sched, comp, player, 44100)

	c.Playback(PlaybackToggle)
	if v.Playing {
		t.Error("failed start should not mark the view as playing")
	}
}

func TestQuitEventDispatch(t *testing.T) {
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	c.Dispatch(QuitEvent{})
	if !c.Quit() {
		t.Error("expected Quit() to report true after a QuitEvent")
	}
}

func TestDispatchRoutesToggleOverlay(t *testing.T) {
	v, sched, comp := newTestSetup()
	c := NewController(v, sched, comp, nil, 44100)

	c.Dispatch(ToggleOverlay{Kind: OverlayPiano})
	if !v.ShowPiano {
		t.Error("expected ShowPiano to toggle on")
	}
}
