// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"sync"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spettro/internal/view"
	"spettro/pkg/bitint"
)

// Format selects which of AudioCache's two buffers a read targets.
type Format int

const (
	FormatMono Format = iota
	FormatNative
)

// AudioCache guarantees that any read for the sample range the display or
// a worker may need completes without touching the decoder. It holds a
// contiguous decoded window in two forms: native-channel 16-bit samples
// (for playback) and mono float (for FFT), kept in lock-step per the
// "dual-buffer audio cache" design note — deliberately not derived
// on-demand, trading memory for zero-copy worker reads.
type AudioCache struct {
	mu       sync.RWMutex
	source   Source
	channels int

	native []int16
	mono   []float32

	start  int64 // W_start, in frames
	length int64 // W_len, in frames
}

// NewAudioCache returns an empty cache reading from source.
func NewAudioCache(source Source) *AudioCache {
	return &AudioCache{source: source, channels: source.Channels()}
}

// desiredWindow computes W_start and W_len for the given view per the
// spec's reposition formula.
func desiredWindow(v *view.State, sampleRate, fftFreq float64) (start, length int64) {
	lookahead := float64(v.Lookahead())
	secpp := v.SecPP()

	wLen := math.Ceil(((float64(v.DispWidth)+2*lookahead)*secpp + 1/fftFreq) * sampleRate)
	wStart := math.Round((v.CrosshairTime - (float64(v.DispWidth)/2+lookahead)*secpp - 1/(2*fftFreq)) * sampleRate)

	return int64(wStart), int64(wLen)
}

// Reposition recomputes the desired cache window for v and refills it. Only
// the main thread may call Reposition. If the window size changes, the
// buffers are reallocated and refilled entirely; otherwise, if the new
// range overlaps the old one, overlapping samples are moved and only the
// exposed tail/head is refilled. Short decoder reads are zero-filled.
func (c *AudioCache) Reposition(v *view.State, fftFreq float64) error {
	sampleRate := c.source.SampleRate()
	newStart, newLength := desiredWindow(v, sampleRate, fftFreq)

	c.mu.Lock()
	defer c.mu.Unlock()

	if newLength != c.length {
		return c.reallocateAndFill(newStart, newLength)
	}

	oldStart, oldLength := c.start, c.length
	oldEnd, newEnd := oldStart+oldLength, newStart+newLength

	if newEnd <= oldStart || newStart >= oldEnd {
		// No overlap at all: equivalent to a full refill.
		return c.reallocateAndFill(newStart, newLength)
	}

	newNative := make([]int16, int(newLength)*c.channels)
	newMono := make([]float32, newLength)

	overlapStart := max64(oldStart, newStart)
	overlapEnd := min64(oldEnd, newEnd)
	overlapLen := overlapEnd - overlapStart

	srcOff := overlapStart - oldStart
	dstOff := overlapStart - newStart

	copy(newNative[dstOff*int64(c.channels):], c.native[srcOff*int64(c.channels):(srcOff+overlapLen)*int64(c.channels)])
	copy(newMono[dstOff:], c.mono[srcOff:srcOff+overlapLen])

	c.native = newNative
	c.mono = newMono
	c.start = newStart
	c.length = newLength

	if dstOff > 0 {
		if err := c.fillRange(0, dstOff); err != nil {
			return err
		}
	}
	tailStart := dstOff + overlapLen
	if tailStart < newLength {
		if err := c.fillRange(tailStart, newLength-tailStart); err != nil {
			return err
		}
	}
	return nil
}

func (c *AudioCache) reallocateAndFill(start, length int64) error {
	c.native = make([]int16, int(length)*c.channels)
	c.mono = make([]float32, length)
	c.start = start
	c.length = length
	return c.fillRange(0, length)
}

// fillRange decodes (or zero-fills, for the portion before frame 0 or past
// end-of-file) frames [offset, offset+count) relative to c.start into the
// buffers. The temporary decode buffer is rounded up to a power of two
// frames and allocated afresh on every call.
func (c *AudioCache) fillRange(offset, count int64) error {
	absStart := c.start + offset
	if count <= 0 {
		return nil
	}

	// Clamp to the decodable region; everything outside is left as the
	// zero value, i.e. silence.
	decodeStart := absStart
	decodeCount := count
	if decodeStart < 0 {
		skip := -decodeStart
		decodeStart = 0
		decodeCount -= skip
		offset += skip
	}
	if decodeCount <= 0 {
		return nil
	}
	if length := c.source.LengthFrames(); decodeStart >= length {
		return nil
	} else if decodeStart+decodeCount > length {
		decodeCount = length - decodeStart
	}
	if decodeCount <= 0 {
		return nil
	}

	if err := c.source.Seek(decodeStart); err != nil {
		return fmt.Errorf("audio: cache fill seek: %w", err)
	}

	capacity := bitint.NextPowerOfTwo(int(decodeCount))
	dst := Frames{
		Native: make([]int16, capacity*c.channels),
		Mono:   make([]float32, capacity),
	}
	read, err := c.source.Read(dst)
	if err != nil {
		return fmt.Errorf("audio: cache fill read: %w", err)
	}

	copy(c.native[offset*int64(c.channels):], dst.Native[:read*c.channels])
	copy(c.mono[offset:], dst.Mono[:read])
	return nil
}

// Read copies frames in [startFrame, startFrame+count) into dst, in the
// requested format. Ranges outside the file are silence-padded; ranges
// entirely outside the cache window return all silence (a soft error,
// reported to the caller via the ok return value so a worker can log and
// reschedule rather than paint garbage).
func (c *AudioCache) Read(startFrame, count int64, format Format, dst []float32, dstNative []int16) (ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cacheStart, cacheEnd := c.start, c.start+c.length
	reqEnd := startFrame + count

	if reqEnd <= cacheStart || startFrame >= cacheEnd {
		zeroFloat(dst)
		zeroInt16(dstNative)
		return false
	}

	overlapStart := max64(cacheStart, startFrame)
	overlapEnd := min64(cacheEnd, reqEnd)

	zeroFloat(dst)
	zeroInt16(dstNative)

	dstOff := overlapStart - startFrame
	srcOff := overlapStart - cacheStart
	n := overlapEnd - overlapStart

	switch format {
	case FormatMono:
		copy(dst[dstOff:dstOff+n], c.mono[srcOff:srcOff+n])
	case FormatNative:
		copy(dstNative[dstOff*int64(c.channels):(dstOff+n)*int64(c.channels)],
			c.native[srcOff*int64(c.channels):(srcOff+n)*int64(c.channels)])
	}

	fullyCovered := overlapStart == startFrame && overlapEnd == reqEnd
	return fullyCovered
}

// Dump serialises the native-channel buffer as a WAV file, for inspecting
// the in-memory decoded window rather than persisting a live capture.
func (c *AudioCache) Dump(path string, writer interface {
	Write(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enc := wav.NewEncoder(writer, int(c.source.SampleRate()), 16, c.channels, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: c.channels, SampleRate: int(c.source.SampleRate())},
		Data:   make([]int, len(c.native)),
	}
	for i, s := range c.native {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: dump write: %w", err)
	}
	return enc.Close()
}

func zeroFloat(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

func zeroInt16(s []int16) {
	for i := range s {
		s[i] = 0
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
