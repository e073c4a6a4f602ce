// SPDX-License-Identifier: MIT

// Package metrics periodically packs scheduler and cache counters into
// a small binary UDP packet, for headless monitoring of a running
// instance without pulling in a full metrics stack.
package metrics

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "spettro/internal/log"
	"spettro/internal/spectrogram"
)

// Source reports the counters a Publisher ships on each tick.
type Source interface {
	Stats() (pending, inFlight int)
	Len() int // ResultCache size
}

type schedulerCacheSource struct {
	scheduler *spectrogram.Scheduler
	cache     *spectrogram.ResultCache
}

func (s schedulerCacheSource) Stats() (int, int) { return s.scheduler.Stats() }
func (s schedulerCacheSource) Len() int          { return s.cache.Len() }

// NewSchedulerCacheSource adapts a Scheduler+ResultCache pair to Source.
func NewSchedulerCacheSource(scheduler *spectrogram.Scheduler, cache *spectrogram.ResultCache) Source {
	return schedulerCacheSource{scheduler: scheduler, cache: cache}
}

// Publisher periodically fetches counters from a Source, packs them
// into a defined binary format, and sends them over UDP using a Sender.
// It runs in a separate goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	source   Source
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum uint32
	packetBuf   *bytes.Buffer
}

// NewPublisher constructs a Publisher. An interval <= 0 defaults to
// ~30Hz (33ms).
func NewPublisher(interval time.Duration, sender *Sender, source Source) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("metrics: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("metrics: source cannot be nil")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &Publisher{sender: sender, source: source, interval: interval, packetBuf: new(bytes.Buffer)}, nil
}

// Start launches the periodic publishing goroutine. Safe to call more
// than once; later calls while already running are no-ops.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, doneChan := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

/*
UDP packet structure (BigEndian):

| Field           | Type   | Size | Description                |
|-----------------|--------|------|----------------------------|
| Sequence Number | uint32 | 4    | monotonically increasing   |
| Timestamp       | int64  | 8    | nanoseconds since epoch    |
| Pending         | uint32 | 4    | scheduler pending length   |
| InFlight        | uint32 | 4    | scheduler in-flight length |
| CacheLen        | uint32 | 4    | ResultCache entry count    |
*/
func (p *Publisher) buildAndSendPacket() {
	pending, inFlight := p.source.Stats()
	cacheLen := p.source.Len()

	p.sequenceNum++
	p.packetBuf.Reset()

	fields := []any{
		p.sequenceNum,
		time.Now().UnixNano(),
		uint32(pending),
		uint32(inFlight),
		uint32(cacheLen),
	}
	for _, f := range fields {
		if err := binary.Write(p.packetBuf, binary.BigEndian, f); err != nil {
			applog.Errorf("metrics: pack packet: %v", err)
			return
		}
	}

	if err := p.sender.Send(p.packetBuf.Bytes()); err != nil {
		applog.Debugf("metrics: send packet %d: %v", p.sequenceNum, err)
	}
}

// Stop gracefully terminates the publishing goroutine and waits for it
// to exit. Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error { return p.Stop() }

var _ interface{ Close() error } = (*Publisher)(nil)
