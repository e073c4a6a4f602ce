// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Player drives an output stream from a Source, feeding the device's fill
// callback and tracking playback position in frames. Adapted from the
// teacher's Engine, which opened an *input* stream for capture; this
// repurposes the identical portaudio.StreamParameters/OpenStream wiring
// for an *output* stream, since the spectrogram viewer plays back a
// decoded file rather than recording one.
type Player struct {
	source          Source
	outputDevice    *portaudio.DeviceInfo
	outputLatency   time.Duration
	channels        int
	framesPerBuffer int
	sampleRate      float64

	stream *portaudio.Stream

	positionFrames int64 // atomic: frames written to the device so far
	playing        int32 // atomic bool
}

// NewPlayer constructs a Player for source, targeting the given output
// device (DefaultDeviceID for the system default).
func NewPlayer(source Source, deviceID int, framesPerBuffer int, lowLatency bool) (*Player, error) {
	device, err := OutputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	p := &Player{
		source:          source,
		outputDevice:    device,
		channels:        source.Channels(),
		framesPerBuffer: framesPerBuffer,
		sampleRate:      source.SampleRate(),
	}
	if lowLatency {
		p.outputLatency = device.DefaultLowOutputLatency
	} else {
		p.outputLatency = device.DefaultHighOutputLatency
	}
	return p, nil
}

// Start opens and begins the output stream.
func (p *Player) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{Channels: 0, Device: nil},
		Output: portaudio.StreamDeviceParameters{
			Channels: p.channels,
			Device:   p.outputDevice,
			Latency:  p.outputLatency,
		},
		FramesPerBuffer: p.framesPerBuffer,
		SampleRate:      p.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, p.fillOutputStream)
	if err != nil {
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	p.stream = stream

	atomic.StoreInt32(&p.playing, 1)
	if err := p.stream.Start(); err != nil {
		p.stream.Close()
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	return nil
}

// Stop halts and closes the output stream.
func (p *Player) Stop() error {
	atomic.StoreInt32(&p.playing, 0)
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return nil
}

// Pause toggles playback without closing the stream.
func (p *Player) Pause(pause bool) {
	if pause {
		atomic.StoreInt32(&p.playing, 0)
	} else {
		atomic.StoreInt32(&p.playing, 1)
	}
}

// GetTime returns the current playback position in seconds, the external
// "audio device" interface's clock for the Compositor's Clock component.
func (p *Player) GetTime() float64 {
	frames := atomic.LoadInt64(&p.positionFrames)
	return float64(frames) / p.sampleRate
}

// fillOutputStream is the real-time callback: it decodes the next block of
// frames from the source and writes them into the device's output buffer.
// Performance critical: runs on a dedicated OS thread, no allocation in
// steady state beyond the Source.Read call's own decode buffer.
func (p *Player) fillOutputStream(out []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if atomic.LoadInt32(&p.playing) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	frameCount := len(out) / p.channels
	dst := Frames{Native: make([]int16, len(out))}
	read, err := p.source.Read(dst)
	if err != nil {
		for i := range out {
			out[i] = 0
		}
		return
	}

	for i := 0; i < read*p.channels; i++ {
		out[i] = int32(dst.Native[i]) << 16
	}
	for i := read * p.channels; i < len(out); i++ {
		out[i] = 0
	}

	atomic.AddInt64(&p.positionFrames, int64(frameCount))
}
