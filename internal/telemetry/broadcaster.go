// SPDX-License-Identifier: MIT

// Package telemetry broadcasts computed column summaries over
// WebSocket to any connected dashboard, for read-only observability
// of the scheduler's output.
package telemetry

import (
	"time"

	"spettro/internal/log"
	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/internal/transport"
)

// ColumnSummary is the JSON payload broadcast for each computed column:
// enough to plot a live peak-frequency trace without shipping the full
// magnitude vector over the wire.
type ColumnSummary struct {
	Time          float64 `json:"time"`
	PeakFreqHz    float64 `json:"peak_freq_hz"`
	PeakMagnitude float64 `json:"peak_magnitude"`
	Silent        bool    `json:"silent"`
}

// Broadcaster rate-limits and republishes ResultCache arrivals as
// ColumnSummary messages over a Transport.
type Broadcaster struct {
	transport   transport.Transport
	sampleRate  float64
	minInterval time.Duration
	lastSend    time.Time
}

// NewBroadcaster wires a Broadcaster to an already-listening Transport
// (typically a *transport.WebSocketTransport). minInterval bounds how
// often PublishResult actually sends, dropping intermediate updates.
func NewBroadcaster(t transport.Transport, sampleRate float64, minInterval time.Duration) *Broadcaster {
	return &Broadcaster{transport: t, sampleRate: sampleRate, minInterval: minInterval}
}

// PublishResult summarizes result and sends it, subject to the rate limit.
func (b *Broadcaster) PublishResult(result spectrogram.CalcResult) {
	now := time.Now()
	if now.Sub(b.lastSend) < b.minInterval {
		return
	}
	b.lastSend = now

	summary := ColumnSummary{Time: result.Request.Time, Silent: result.Silent}
	if !result.Silent && len(result.Magnitude) > 0 {
		bin, mag := peakBin(result.Magnitude)
		summary.PeakFreqHz = spectrum.FreqOfBin(bin, result.Request.Speclen, b.sampleRate)
		summary.PeakMagnitude = mag
	}

	if err := b.transport.Send(summary); err != nil {
		log.Warnf("telemetry: send column summary: %v", err)
	}
}

// Close shuts down the underlying transport.
func (b *Broadcaster) Close() error { return b.transport.Close() }

func peakBin(magnitude []float64) (int, float64) {
	bestBin, bestMag := 0, magnitude[0]
	for i, m := range magnitude {
		if m > bestMag {
			bestBin, bestMag = i, m
		}
	}
	return bestBin, bestMag
}
