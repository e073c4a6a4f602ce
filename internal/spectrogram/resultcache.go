// SPDX-License-Identifier: MIT
package spectrogram

import (
	"math"
	"sort"
	"sync"
)

// Epsilon bounds how close two request times must be to be treated as
// the same column when recalling a cached result. Column times are
// derived from float64 arithmetic over pixels-per-second and frame
// counts, so exact equality is not reliable.
const Epsilon = 1e-10

// ResultCache stores computed columns keyed by time, time-ordered, so
// a worker or the compositor can check whether a column has already
// been computed before scheduling or repainting it. Per the retrieval
// pack's FFTResultProvider convention (GetMagnitudes / GetMagnitudesInto),
// all access goes through a thread-safe getter and a thread-safe setter.
//
// Results computed under a spectral configuration that has since
// changed (a different window function, FFT frequency, or sample
// rate) get no eviction of their own: like any other entry they leave
// the cache only through the time-based pass in Remember or a DropAll.
// A worker that finishes stale work still gets to store
// its result, since discarding it buys nothing over leaving it
// unused, and a later recall checks CalcRequest.SameParams before
// trusting what it finds.
type ResultCache struct {
	mu      sync.RWMutex
	results []CalcResult // kept sorted ascending by Request.Time
	cutoff  float64      // entries with Request.Time < cutoff are stale
}

// NewResultCache returns an empty cache. The retention cutoff starts
// at -Inf so nothing is evicted before SetRetentionWindow is first
// called.
func NewResultCache() *ResultCache {
	return &ResultCache{cutoff: math.Inf(-1)}
}

// SetRetentionWindow records the view parameters Remember uses to
// evict stale columns: dispTime is the display's current centre time,
// offset the lookahead margin (in columns), width the display width
// (in columns), and secpp the seconds-per-pixel scale. Called by the
// compositor alongside every repaint/scroll, mirroring how the
// scheduler's view window is kept current.
func (c *ResultCache) SetRetentionWindow(dispTime, offset float64, width int, secpp float64) {
	c.mu.Lock()
	c.cutoff = dispTime - (offset+float64(width)/2)*secpp - Epsilon
	c.mu.Unlock()
}

// Remember stores result, first evicting every entry whose time
// precedes the current retention cutoff, then inserting result in
// time order. If an entry with the same (t, fft_freq, window) already
// exists, the incoming duplicate is dropped rather than replacing it.
func (c *ResultCache) Remember(result CalcResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.results[:0]
	for _, r := range c.results {
		if r.Request.Time < c.cutoff {
			continue
		}
		kept = append(kept, r)
	}
	c.results = kept

	for _, existing := range c.results {
		if closeEnough(existing.Request.Time, result.Request.Time) && existing.Request.SameParams(result.Request) {
			return
		}
	}

	i := sort.Search(len(c.results), func(i int) bool { return c.results[i].Request.Time >= result.Request.Time })
	c.results = append(c.results, CalcResult{})
	copy(c.results[i+1:], c.results[i:])
	c.results[i] = result
}

// Recall returns the cached result for time under params, if one
// exists within Epsilon and was computed under the same spectral
// configuration. Uses the tail-time shortcut: since results is sorted
// ascending, a time past the last entry plus Epsilon cannot match
// anything, so the scan is skipped entirely.
func (c *ResultCache) Recall(time float64, params CalcRequest) (CalcResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.results) == 0 {
		return CalcResult{}, false
	}
	if tail := c.results[len(c.results)-1]; time > tail.Request.Time+Epsilon {
		return CalcResult{}, false
	}

	for _, existing := range c.results {
		if closeEnough(existing.Request.Time, time) && existing.Request.SameParams(params) {
			return existing, true
		}
	}
	return CalcResult{}, false
}

// Has reports whether a usable result for time under params is
// already cached, without copying the magnitude slice. Same tail-time
// shortcut as Recall.
func (c *ResultCache) Has(time float64, params CalcRequest) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.results) == 0 {
		return false
	}
	if tail := c.results[len(c.results)-1]; time > tail.Request.Time+Epsilon {
		return false
	}

	for _, existing := range c.results {
		if closeEnough(existing.Request.Time, time) && existing.Request.SameParams(params) {
			return true
		}
	}
	return false
}

// DropAll discards every cached result. The Controller does not call
// it when the spectral configuration changes; results computed under
// the old parameters stay cached and are passed over by the
// SameParams check.
func (c *ResultCache) DropAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
}

// Len reports how many columns are currently cached.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Epsilon
}
