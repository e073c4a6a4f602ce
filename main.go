// SPDX-License-Identifier: MIT
package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"spettro/cmd"
	"spettro/internal/audio"
	"spettro/internal/compositor"
	"spettro/internal/config"
	"spettro/internal/control"
	"spettro/internal/log"
	"spettro/internal/metrics"
	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/internal/telemetry"
	"spettro/internal/transport"
	"spettro/internal/tui"
	"spettro/internal/view"

	"github.com/charmbracelet/x/term"
)

// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Parse command line arguments and/or a YAML config file
//   - Execute one-off commands that exit (device listing)
//   - Decode the source file and build the analysis pipeline
//
// 2. Concurrent Phase (Hot Path):
//   - Scheduler workers compute spectral columns
//   - The clock drives scrolling at the configured FPS
//   - Keyboard input is translated into Controller events
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the scheduler, clock and any optional sidecars
//   - Close the audio source
func main() {
	parsed, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := parsed.Config

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	if cfg.Command == "list" {
		if err := tui.StartDeviceListUI(); err != nil {
			log.Fatalf("device list: %v", err)
		}
		return
	}

	if len(parsed.Files) == 0 {
		fmt.Fprintln(os.Stderr, "spettro: no audio file given")
		os.Exit(1)
	}

	if err := run(cfg, parsed.Files[0]); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, path string) error {
	windowFn, err := spectrum.ParseWindowFunc(cfg.Display.Window)
	if err != nil {
		log.Warnf("main: %v, falling back to hann", err)
	}

	source, err := audio.OpenWAV(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer source.Close()

	sampleRate := source.SampleRate()

	maxTime := float64(source.LengthFrames()) / sampleRate
	secpp := 0.0
	if cfg.Display.PixelsPerSec > 0 {
		secpp = 1 / cfg.Display.PixelsPerSec
	}
	startTime := clampStartTime(cfg.Display.StartTime, maxTime, secpp)

	v := &view.State{
		DispWidth:       cfg.Display.Width,
		DispHeight:      cfg.Display.Height,
		CrosshairCol:    cfg.Display.Width / 2,
		CrosshairTime:   startTime,
		MinFreq:         cfg.Display.MinFreq,
		MaxFreq:         cfg.Display.MaxFreq,
		MinY:            0,
		MaxY:            cfg.Display.Height - 1,
		PixelsPerSecond: cfg.Display.PixelsPerSec,
		FPS:             cfg.Display.FPS,
		FFTFreq:         cfg.Display.FFTFreq,
		Window:          windowFn,
		DynRangeDB:      cfg.Display.DynRangeDB,
		LeftBarTime:     cfg.Display.LeftBarTime,
		RightBarTime:    cfg.Display.RightBarTime,
		LeftBarSet:      cfg.Display.LeftBarSet,
		RightBarSet:     cfg.Display.RightBarSet,
		BeatsPerBar:     cfg.Display.BeatsPerBar,
		ShowPiano:       cfg.Display.ShowPiano,
		ShowStaff:       cfg.Display.ShowStaff,
		ShowGuitar:      cfg.Display.ShowGuitar,
		ShowFreqAxes:    cfg.Display.ShowFreqAxes,
		ShowTimeAxes:    cfg.Display.ShowTimeAxes,
	}

	audioCache := audio.NewAudioCache(source)
	if err := audioCache.Reposition(v, cfg.Display.FFTFreq); err != nil {
		return fmt.Errorf("prime audio cache: %w", err)
	}

	if cfg.Recording.Enabled {
		if err := dumpCacheWindow(audioCache, cfg.Recording.OutputDir, path); err != nil {
			log.Warnf("main: recording.enabled dump: %v", err)
		}
	}

	windows := spectrum.NewWindowTable()
	engine := spectrum.NewEngine(windows)
	resultCache := spectrogram.NewResultCache()
	scheduler := spectrogram.NewScheduler(resultCache, engine, audioCache)

	maxThreads := cfg.Display.MaxThreads
	if maxThreads < 1 {
		maxThreads = 1
	}
	scheduler.Start(maxThreads)
	defer scheduler.Stop()

	backend := compositor.NewRasterBackend(cfg.Display.Width, cfg.Display.Height)
	comp := compositor.NewCompositor(backend, resultCache, scheduler, sampleRate)
	comp.SetRowOverlay(buildRowOverlay(v))

	player, err := audio.NewPlayer(source, cfg.Audio.OutputDevice, cfg.Audio.FramesPerBuffer, cfg.Audio.LowLatency)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}

	controller := control.NewController(v, scheduler, comp, player, sampleRate)

	closers := startSidecars(cfg, scheduler, resultCache, sampleRate)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	clock := compositor.NewClock(cfg.Display.FPS)
	clock.Start()
	defer clock.Stop()

	comp.RepaintDisplay(v, false)

	if cfg.Display.OutputPNG != "" {
		waitForIdle(scheduler)
		comp.RepaintDisplay(v, false)
		return controller.Screenshot(cfg.Display.OutputPNG, backend, createFile)
	}

	if cfg.Display.Autoplay {
		controller.Dispatch(control.PlaybackEvent{Action: control.PlaybackToggle})
	}

	return interactiveLoop(v, controller, comp, player, clock, cfg.Display.ExitWhenPlayed, source.LengthFrames(), sampleRate)
}

// dumpCacheWindow writes the audio cache's initially primed window to a
// WAV file under dir, named after the source file, when
// cfg.Recording.Enabled requests a debug capture of what the engine
// decoded around the starting crosshair position.
func dumpCacheWindow(cache *audio.AudioCache, dir, sourcePath string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".cache-dump.wav"
	out := filepath.Join(dir, name)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %q: %w", out, err)
	}
	defer f.Close()

	if err := cache.Dump(out, f); err != nil {
		return err
	}
	log.Infof("main: wrote cache window dump to %s", out)
	return nil
}

// clampStartTime keeps a configured start time from landing past the
// end of the file: anything beyond maxTime snaps down to the start of
// the last column on the secpp grid, rather than past it.
func clampStartTime(startTime, maxTime, secpp float64) float64 {
	if startTime <= maxTime {
		return startTime
	}
	if secpp <= 0 {
		return maxTime
	}
	return math.Floor(maxTime/secpp) * secpp
}

// createFile matches the writeCloser-producing signature
// Controller.Screenshot expects, so os.Create can be passed through
// without the control package needing to know about *os.File.
func createFile(path string) (interface {
	Write(p []byte) (int, error)
	Close() error
}, error) {
	return os.Create(path)
}

// buildRowOverlay assembles the piano/staff/guitar note sets the view
// currently wants shown. A real note-frequency table (concert pitch,
// guitar standard tuning) would populate these; left empty here since
// the exact note sets are an axis-drawing detail the pixel backend
// owns, not the engine.
func buildRowOverlay(v *view.State) *compositor.RowOverlay {
	var sets []compositor.NoteFrequencies
	return compositor.BuildRowOverlay(sets, v.MinFreq, v.MaxFreq, v.MagLen())
}

// waitForIdle blocks until the scheduler has no pending or in-flight
// work, for the non-interactive screenshot path.
func waitForIdle(s *spectrogram.Scheduler) {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		pending, inFlight := s.Stats()
		if pending == 0 && inFlight == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Warnf("main: timed out waiting for scheduler to drain before screenshot")
}

type sidecar interface{ Close() error }

// startSidecars optionally wires the WebSocket telemetry feed and the
// UDP metrics publisher per cfg.Transport, returning whatever was
// started so the caller can close it on shutdown.
func startSidecars(cfg *config.Config, scheduler *spectrogram.Scheduler, cache *spectrogram.ResultCache, sampleRate float64) []sidecar {
	var closers []sidecar

	switch {
	case cfg.Transport.WebSocketEnabled:
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
		broadcaster := telemetry.NewBroadcaster(ws, sampleRate, 50*time.Millisecond)
		scheduler.SetOnResult(broadcaster.PublishResult)
		closers = append(closers, broadcaster)
		log.Infof("main: telemetry feed listening on %s", cfg.Transport.WebSocketAddr)
	case cfg.Debug:
		// No WebSocket client to feed; log every published column instead
		// so a developer running with --debug can still see the telemetry
		// broadcaster firing.
		lt := transport.NewLoggingTransport()
		broadcaster := telemetry.NewBroadcaster(lt, sampleRate, 50*time.Millisecond)
		scheduler.SetOnResult(broadcaster.PublishResult)
		closers = append(closers, broadcaster)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := metrics.NewSender(cfg.Transport.UDPTargetAddress, cfg.Debug)
		if err != nil {
			log.Errorf("main: metrics sender: %v", err)
		} else {
			source := metrics.NewSchedulerCacheSource(scheduler, cache)
			publisher, err := metrics.NewPublisher(cfg.Transport.UDPSendInterval, sender, source)
			if err != nil {
				log.Errorf("main: metrics publisher: %v", err)
				sender.Close()
			} else {
				publisher.Start()
				closers = append(closers, publisher, sender)
				log.Infof("main: metrics publisher sending to %s", cfg.Transport.UDPTargetAddress)
			}
		}
	}

	return closers
}

// interactiveLoop puts the terminal in raw mode, translates keypresses
// into control events via the keymap, and services the scroll clock
// until a quit event or (if requested) the end of playback.
func interactiveLoop(v *view.State, controller *control.Controller, comp *compositor.Compositor, player *audio.Player, clock *compositor.Clock, exitWhenPlayed bool, lengthFrames int64, sampleRate float64) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// No interactive terminal (piped input, CI, etc): just let
		// playback run to completion on the clock alone.
		return runHeadlessUntilDone(v, controller, comp, player, clock, lengthFrames, sampleRate)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw terminal mode: %w", err)
	}
	defer term.Restore(fd, state)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	keys := make(chan control.Key, 8)
	go readKeys(os.Stdin, keys)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return nil
		case k := <-keys:
			dispatchKey(controller, v, k)
			if controller.Quit() {
				return nil
			}
		case <-ticker.C:
			if clock.Poll() {
				comp.DoScroll(v, player)
			}
			maxTime := float64(lengthFrames) / sampleRate
			if exitWhenPlayed && v.Playing && v.CrosshairTime >= maxTime {
				return nil
			}
		}
	}
}

// dispatchKey applies one keypress to controller. '+'/'-' zoom both
// axes at once via BothAxisZoom; '['/']' stamp the current crosshair
// time onto the corresponding bar marker; every other key goes through
// the single-event keymap translation.
func dispatchKey(controller *control.Controller, v *view.State, k control.Key) {
	switch k {
	case control.KeyPlus:
		t, f := control.BothAxisZoom(2.0)
		controller.Dispatch(t)
		controller.Dispatch(f)
	case control.KeyMinus:
		t, f := control.BothAxisZoom(0.5)
		controller.Dispatch(t)
		controller.Dispatch(f)
	case control.KeyLeftBrk:
		controller.Dispatch(control.SetBarMarker{Left: true, Time: v.CrosshairTime})
	case control.KeyRightBrk:
		controller.Dispatch(control.SetBarMarker{Left: false, Time: v.CrosshairTime})
	default:
		if ev, ok := control.Translate(k); ok {
			controller.Dispatch(ev)
		}
	}
}

// runHeadlessUntilDone drives the scroll clock without a keyboard,
// exiting once playback reaches the end of the file.
func runHeadlessUntilDone(v *view.State, controller *control.Controller, comp *compositor.Compositor, player *audio.Player, clock *compositor.Clock, lengthFrames int64, sampleRate float64) error {
	controller.Dispatch(control.PlaybackEvent{Action: control.PlaybackToggle})

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	maxTime := float64(lengthFrames) / sampleRate
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			return nil
		case <-ticker.C:
			if clock.Poll() {
				comp.DoScroll(v, player)
			}
			if v.CrosshairTime >= maxTime {
				return nil
			}
		}
	}
}

// readKeys translates raw terminal bytes into control.Key values,
// recognising the arrow-key escape sequences alongside plain ASCII.
func readKeys(r *os.File, out chan<- control.Key) {
	defer close(out)
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case ' ':
			out <- control.KeySpace
		case '\x1b':
			next, err := br.ReadByte()
			if err != nil {
				out <- control.KeyEscape
				continue
			}
			if next != '[' {
				out <- control.KeyEscape
				continue
			}
			arrow, err := br.ReadByte()
			if err != nil {
				continue
			}
			switch arrow {
			case 'A':
				out <- control.KeyUp
			case 'B':
				out <- control.KeyDown
			case 'C':
				out <- control.KeyRight
			case 'D':
				out <- control.KeyLeft
			}
		case '+', '=':
			out <- control.KeyPlus
		case '-':
			out <- control.KeyMinus
		case 'x':
			out <- control.KeyX
		case 'y':
			out <- control.KeyY
		case 'p':
			out <- control.KeyP
		case 's':
			out <- control.KeyS
		case 'g':
			out <- control.KeyG
		case 'a':
			out <- control.KeyA
		case 'A':
			out <- control.KeyCapitalA
		case 'f':
			out <- control.KeyF
		case '[':
			out <- control.KeyLeftBrk
		case ']':
			out <- control.KeyRightBrk
		case '\r', '\n':
			out <- control.KeyEnter
		case 'q', 3: // q or Ctrl-C
			out <- control.KeyEscape
		}
	}
}
