// SPDX-License-Identifier: MIT
package spectrogram

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"spettro/internal/audio"
	"spettro/internal/spectrum"
)

// Scheduler owns a pool of workers that pull pending column requests
// and compute them into a ResultCache. Its Start/Stop lifecycle is
// grounded on the retrieval pack's UDP publisher, keeping its WaitGroup
// but replacing the done channel and sync.Once with a stopped flag, and
// the single ticker-driven goroutine with a fixed pool woken by a
// condition variable, since work
// arrives from the display asynchronously rather than on a fixed
// interval.
type Scheduler struct {
	cache  *ResultCache
	engine *spectrum.Engine
	cacheA *audio.AudioCache

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []CalcRequest
	inFlight []CalcRequest
	stopped  bool

	viewWindow atomic.Value // viewWindow, the screen+lookahead region get_work dequeues against

	onResult atomic.Pointer[func(CalcResult)] // optional telemetry hook

	wg sync.WaitGroup
}

// viewWindow names the region getWork prioritizes: ScreenLeft/ScreenRight
// are the actual visible screen (left_x/right_x); Left/Right extend that
// by the lookahead margin on both sides and bound which pending entries
// are even considered (step 1 drops anything before Left; entries past
// Right are left untouched, not yet worth cleaning up). The spectral
// parameters name what a pending entry must match to be considered
// current. Before the compositor ever calls SetViewWindow, set is false
// and getWork falls back to matching everything against an unbounded
// screen, so a Scheduler used without a compositor (as in unit tests)
// still drains its pending list.
type viewWindow struct {
	set bool

	Left, Right             float64 // left_x-LOOKAHEAD .. right_x+LOOKAHEAD
	ScreenLeft, ScreenRight float64 // left_x, right_x: the actual visible screen

	FFTFreq float64
	Window  spectrum.WindowFunc
}

func (w viewWindow) left() float64 {
	if !w.set {
		return math.Inf(-1)
	}
	return w.Left
}

func (w viewWindow) right() float64 {
	if !w.set {
		return math.Inf(1)
	}
	return w.Right
}

func (w viewWindow) screenLeft() float64 {
	if !w.set {
		return math.Inf(-1)
	}
	return w.ScreenLeft
}

func (w viewWindow) screenRight() float64 {
	if !w.set {
		return math.Inf(1)
	}
	return w.ScreenRight
}

func (w viewWindow) paramsMatch(req CalcRequest) bool {
	if !w.set {
		return true
	}
	return req.FFTFreq == w.FFTFreq && req.Window == w.Window
}

// SetOnResult installs fn to be called after every computed (or
// silence-shortcut) column is stored in the cache, in addition to the
// normal Remember path. Used to feed a telemetry broadcaster without
// coupling the scheduler to it directly. Pass nil to remove.
func (s *Scheduler) SetOnResult(fn func(CalcResult)) {
	if fn == nil {
		s.onResult.Store(nil)
		return
	}
	s.onResult.Store(&fn)
}

// NewScheduler constructs a Scheduler that reads samples from cacheA,
// computes them with engine, and stores results in cache.
func NewScheduler(cache *ResultCache, engine *spectrum.Engine, cacheA *audio.AudioCache) *Scheduler {
	s := &Scheduler{cache: cache, engine: engine, cacheA: cacheA}
	s.cond = sync.NewCond(&s.mu)
	s.viewWindow.Store(viewWindow{})
	return s
}

// Start launches numWorkers goroutines pulling from the pending queue
// until Stop is called.
func (s *Scheduler) Start(numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	s.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer s.wg.Done()
			for {
				req, ok := s.getWork()
				if !ok {
					return
				}
				s.computeOne(req)
			}
		}()
	}
}

// Stop signals every worker to exit once its current computation
// finishes, and waits for the pool to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.wg.Wait()
}

// SetViewWindow records the visible screen span and current spectral
// parameters, called by the compositor before scheduling a repaint or
// scroll so getWork can favor on-screen columns over ones further out
// in the lookahead margin. screenLeft/screenRight are column 0 and the
// last column's time; lookaheadMargin extends that span by the same
// amount on both sides to get the full region getWork considers at all.
func (s *Scheduler) SetViewWindow(screenLeft, screenRight, lookaheadMargin, fftFreq float64, window spectrum.WindowFunc) {
	s.viewWindow.Store(viewWindow{
		set:         true,
		Left:        screenLeft - lookaheadMargin,
		Right:       screenRight + lookaheadMargin,
		ScreenLeft:  screenLeft,
		ScreenRight: screenRight,
		FFTFreq:     fftFreq,
		Window:      window,
	})
}

// Schedule enqueues every request in requests that is not already in
// flight or satisfied by the cache, keeping the pending list ordered by
// Time. A request whose time matches a pending entry exactly (same
// params) is a no-op; one whose time matches but whose params differ
// replaces the stale pending entry in place.
func (s *Scheduler) Schedule(requests []CalcRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range requests {
		if s.cache.Has(req.Time, req) {
			continue
		}
		if containsRequest(s.inFlight, req) {
			continue
		}
		s.pending = insertOrReplace(s.pending, req)
	}
	s.cond.Broadcast()
}

// insertOrReplace keeps pending sorted ascending by Time. A pending
// entry whose Time is within Epsilon of req.Time is either left alone
// (same params: req is an exact duplicate) or overwritten (different
// params: the displaced entry was for stale parameters). Otherwise req
// is inserted at its sorted position.
func insertOrReplace(pending []CalcRequest, req CalcRequest) []CalcRequest {
	for i, existing := range pending {
		if !closeEnough(existing.Time, req.Time) {
			continue
		}
		if existing.SameParams(req) {
			return pending
		}
		pending[i] = req
		return pending
	}

	i := sort.Search(len(pending), func(i int) bool { return pending[i].Time >= req.Time })
	pending = append(pending, CalcRequest{})
	copy(pending[i+1:], pending[i:])
	pending[i] = req
	return pending
}

// Stats reports the current pending and in-flight queue lengths, for
// headless monitoring.
func (s *Scheduler) Stats() (pending, inFlight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), len(s.inFlight)
}

// DropAllWork discards every request not yet picked up by a worker.
// Called when the view's spectral configuration changes and the
// pending queue no longer describes columns worth computing.
func (s *Scheduler) DropAllWork() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// DropNotOnGrid discards every pending request whose Time is not a
// multiple of secpp. Called after a time-axis zoom coarsens the
// seconds-per-pixel grid, so columns that no longer land on a pixel
// boundary are not computed for nothing.
func (s *Scheduler) DropNotOnGrid(secpp float64) {
	if secpp <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, req := range s.pending {
		ratio := req.Time / secpp
		if math.Abs(ratio-math.Round(ratio)) < 1e-9 {
			kept = append(kept, req)
		}
	}
	s.pending = kept
}

// getWork blocks until a request is available or the scheduler is
// stopped, then dequeues one: entries that fell behind the lookahead
// margin are dropped, the first entry actually on screen matching the
// view's current spectral parameters wins, and only if nothing on
// screen qualifies does the earliest look-behind entry (inside the
// margin, left of the screen) get a chance.
func (s *Scheduler) getWork() (CalcRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		for len(s.pending) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped && len(s.pending) == 0 {
			return CalcRequest{}, false
		}

		win, _ := s.viewWindow.Load().(viewWindow)
		left, right := win.left(), win.right()

		// Step 1: drop entries strictly before the left lookahead edge.
		kept := s.pending[:0]
		for _, req := range s.pending {
			if req.Time < left {
				continue
			}
			kept = append(kept, req)
		}
		s.pending = kept
		if len(s.pending) == 0 {
			if s.stopped {
				return CalcRequest{}, false
			}
			s.cond.Wait()
			continue
		}

		// Step 2: scan entries up to the right lookahead edge, dropping
		// stale-parameter ones in passing, looking for the first entry
		// actually on screen. Entries past the right edge aren't worth
		// cleaning up yet and are left untouched. Entries in the
		// lookahead margin survive the pass but don't count as "found"
		// here, leaving step 3's look-behind fallback room to win when
		// nothing on screen matches.
		screenLeft, screenRight := win.screenLeft(), win.screenRight()
		idx, ok := -1, false
		out := s.pending[:0]
		i := 0
		for ; i < len(s.pending); i++ {
			req := s.pending[i]
			if req.Time > right {
				break
			}
			if !win.paramsMatch(req) {
				continue
			}
			if !ok && req.Time >= screenLeft && req.Time <= screenRight {
				idx, ok = len(out), true
			}
			out = append(out, req)
		}
		out = append(out, s.pending[i:]...)
		s.pending = out

		// Step 3: nothing on screen — fall back to the earliest
		// look-behind entry (strictly left of the visible screen).
		if !ok {
			for i, req := range s.pending {
				if req.Time >= win.ScreenLeft {
					break
				}
				if win.paramsMatch(req) {
					idx, ok = i, true
					break
				}
			}
		}

		if !ok {
			// Everything pending is for a stale view; wait for a
			// fresh Schedule call rather than spinning.
			if s.stopped {
				return CalcRequest{}, false
			}
			s.cond.Wait()
			continue
		}

		req := s.pending[idx]
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		s.inFlight = append(s.inFlight, req)
		return req, true
	}
}

// computeOne reads the samples for req, computes its column (or
// shortcuts it as silence), stores the result, and clears req from
// the in-flight set.
func (s *Scheduler) computeOne(req CalcRequest) {
	defer s.clearInFlight(req)

	frameCount := 2 * req.Speclen
	startFrame := int64(math.Round(req.Time*req.SampleRate)) - int64(frameCount/2)

	samples := make([]float32, frameCount)
	ok := s.cacheA.Read(startFrame, int64(frameCount), audio.FormatMono, samples, nil)
	if !ok {
		// The audio window moved out from under us; re-enqueue for a
		// later pass once the cache has repositioned.
		s.mu.Lock()
		if !s.stopped {
			s.pending = insertOrReplace(s.pending, req)
		}
		s.mu.Unlock()
		return
	}

	if IsSilent(samples) {
		result := CalcResult{Request: req, Silent: true}
		s.cache.Remember(result)
		s.notifyResult(result)
		return
	}

	audioF64 := make([]float64, frameCount)
	for i, v := range samples {
		audioF64[i] = float64(v)
	}

	magnitude := make([]float64, req.Speclen+1)
	scratch := make([]complex128, req.Speclen+1)
	if err := s.engine.Compute(audioF64, req.Window, req.Speclen, magnitude, scratch); err != nil {
		return
	}

	result := CalcResult{Request: req, Magnitude: magnitude}
	s.cache.Remember(result)
	s.notifyResult(result)
}

func (s *Scheduler) notifyResult(result CalcResult) {
	if fn := s.onResult.Load(); fn != nil {
		(*fn)(result)
	}
}

func (s *Scheduler) clearInFlight(req CalcRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.inFlight {
		if existing.Time == req.Time && existing.SameParams(req) {
			s.inFlight = append(s.inFlight[:i], s.inFlight[i+1:]...)
			return
		}
	}
}

func containsRequest(list []CalcRequest, req CalcRequest) bool {
	for _, existing := range list {
		if closeEnough(existing.Time, req.Time) && existing.SameParams(req) {
			return true
		}
	}
	return false
}
