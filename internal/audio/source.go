// SPDX-License-Identifier: MIT

// Package audio implements the audio-decoder façade, the pre-emptive
// AudioCache, device enumeration and output-stream playback. Grounded on
// the retrieval pack's go-audio/wav + go-audio/audio dependencies
// (previously used only to encode a live capture) and its
// gordonklaus/portaudio device abstraction (previously used only for
// input streams).
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Frames is a block of decoded samples: Native holds one int16 per sample
// per channel, interleaved; Mono holds one float32 per frame, averaged
// across channels into [-1, +1].
type Frames struct {
	Native []int16
	Mono   []float32
}

// NumFrames returns how many audio frames are represented, given channels.
func (f Frames) NumFrames(channels int) int {
	if channels == 0 {
		return 0
	}
	return len(f.Native) / channels
}

// Source decodes sample frames for a given frame range on demand. It is
// the sole leaf component: every other piece of the engine reaches the
// decoder only through this interface.
type Source interface {
	LengthFrames() int64
	SampleRate() float64
	Channels() int
	Seek(frame int64) error
	// Read decodes up to len(dst.Native)/channels frames starting at the
	// current seek position, returning the number of frames actually
	// decoded. A short read is not an error — AudioCache is responsible
	// for zero-filling the remainder.
	Read(dst Frames) (framesRead int, err error)
	Close() error
}

// WAVSource adapts a WAV file to the Source interface via go-audio/wav.
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate float64
	channels   int
	length     int64
	pos        int64
}

// OpenWAV opens path as a WAV-backed Source.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("audio: %q is not a valid WAV file", path)
	}
	dec.ReadInfo()

	duration, err := dec.Duration()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: read duration of %q: %w", path, err)
	}

	sampleRate := float64(dec.SampleRate)
	length := int64(duration.Seconds() * sampleRate)

	return &WAVSource{
		file:       f,
		decoder:    dec,
		sampleRate: sampleRate,
		channels:   int(dec.NumChans),
		length:     length,
	}, nil
}

func (s *WAVSource) LengthFrames() int64 { return s.length }
func (s *WAVSource) SampleRate() float64 { return s.sampleRate }
func (s *WAVSource) Channels() int       { return s.channels }

func (s *WAVSource) Seek(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	byteOffset := frame * int64(s.channels) * int64(s.decoder.BitDepth/8)
	if _, err := s.decoder.PCMChunk.Seek(byteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("audio: seek to frame %d: %w", frame, err)
	}
	s.pos = frame
	return nil
}

func (s *WAVSource) Read(dst Frames) (int, error) {
	wantFrames := dst.NumFrames(s.channels)
	if wantFrames == 0 {
		return 0, nil
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: s.channels, SampleRate: int(s.sampleRate)},
		Data:   make([]int, wantFrames*s.channels),
	}

	n, err := s.decoder.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("audio: decode: %w", err)
	}

	framesRead := n / s.channels
	for i := 0; i < n && i < len(dst.Native); i++ {
		dst.Native[i] = int16(buf.Data[i])
	}

	for frame := 0; frame < framesRead && frame < len(dst.Mono); frame++ {
		var sum float32
		for ch := 0; ch < s.channels; ch++ {
			idx := frame*s.channels + ch
			if idx < n {
				sum += float32(buf.Data[idx]) / 32768.0
			}
		}
		dst.Mono[frame] = sum / float32(s.channels)
	}

	s.pos += int64(framesRead)
	return framesRead, nil
}

func (s *WAVSource) Close() error {
	return s.file.Close()
}
