// SPDX-License-Identifier: MIT
package telemetry

import (
	"testing"
	"time"

	"spettro/internal/spectrogram"
	"spettro/internal/spectrum"
	"spettro/pkg/utils"
)

func baseResult() spectrogram.CalcResult {
	speclen := 64
	magnitude := make([]float64, speclen+1)
	magnitude[10] = 5.0 // an arbitrary peak bin
	return spectrogram.CalcResult{
		Request: spectrogram.CalcRequest{
			Time:       1.5,
			FFTFreq:    20,
			Window:     spectrum.Hann,
			SampleRate: 44100,
			Speclen:    speclen,
		},
		Magnitude: magnitude,
	}
}

func TestPublishResultSendsSummary(t *testing.T) {
	mt := &utils.MockTransport{}
	b := NewBroadcaster(mt, 44100, 0)

	b.PublishResult(baseResult())

	summary, ok := mt.LastData.(ColumnSummary)
	if !ok {
		t.Fatalf("LastData has type %T, want ColumnSummary", mt.LastData)
	}
	if summary.Time != 1.5 {
		t.Errorf("summary.Time = %v, want 1.5", summary.Time)
	}
	if summary.Silent {
		t.Error("expected a non-silent summary")
	}
	wantFreq := spectrum.FreqOfBin(10, 64, 44100)
	if summary.PeakFreqHz != wantFreq {
		t.Errorf("summary.PeakFreqHz = %v, want %v", summary.PeakFreqHz, wantFreq)
	}
}

func TestPublishResultSilentOmitsPeak(t *testing.T) {
	mt := &utils.MockTransport{}
	b := NewBroadcaster(mt, 44100, 0)

	result := baseResult()
	result.Silent = true
	b.PublishResult(result)

	summary := mt.LastData.(ColumnSummary)
	if !summary.Silent {
		t.Error("expected Silent to propagate")
	}
	if summary.PeakFreqHz != 0 || summary.PeakMagnitude != 0 {
		t.Error("expected zero peak fields for a silent column")
	}
}

func TestPublishResultRateLimited(t *testing.T) {
	mt := &utils.MockTransport{}
	b := NewBroadcaster(mt, 44100, time.Hour)

	b.PublishResult(baseResult())
	if len(mt.SendLog) != 1 {
		t.Fatalf("expected first publish to send, SendLog has %d entries", len(mt.SendLog))
	}

	second := baseResult()
	second.Request.Time = 2.5
	b.PublishResult(second)
	if len(mt.SendLog) != 1 {
		t.Errorf("expected rate limit to drop the second publish, SendLog has %d entries", len(mt.SendLog))
	}
}
