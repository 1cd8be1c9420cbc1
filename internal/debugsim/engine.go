package debugsim

import "time"

// Engine drives sessions through the scan-then-fix workflow. It holds no
// per-session state: ticker handles live on the Session, so one Engine can
// serve many sessions on the same event loop.
type Engine struct {
	sched    Scheduler
	rng      Random
	tun      Tunables
	catalog  []string
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom sets the randomness source. Tests use it to force outcomes.
func WithRandom(r Random) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithTunables overrides the default timing and probabilities.
func WithTunables(t Tunables) Option {
	return func(e *Engine) { e.tun = t }
}

// WithCatalog replaces the issue archetypes. An empty catalog is ignored.
func WithCatalog(names []string) Option {
	return func(e *Engine) {
		if len(names) > 0 {
			e.catalog = append([]string(nil), names...)
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock sets the time source used for issue and run timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the issue ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an engine that schedules ticks on sched.
func NewEngine(sched Scheduler, opts ...Option) *Engine {
	e := &Engine{
		sched:    sched,
		rng:      NewRandom(0),
		tun:      DefaultTunables(),
		catalog:  DefaultCatalog(),
		observer: NopObserver{},
		now:      time.Now,
		newID:    newIssueID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tunables returns the engine's configuration.
func (e *Engine) Tunables() Tunables {
	return e.tun
}

// Catalog returns a copy of the issue archetypes.
func (e *Engine) Catalog() []string {
	return append([]string(nil), e.catalog...)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// StartScanning enters the scanning phase: any ticker of s is cancelled, the
// error is cleared, progress drops to 0 and the scanning ticker is scheduled.
// Completion is observed through the session's stage, never returned.
func (e *Engine) StartScanning(s *Session) {
	e.CancelAll(s)
	s.Err = ""
	s.Progress = 0
	e.setStage(s, StageScanning)

	epoch := s.epoch
	s.scanTicker = e.sched.Every(e.tun.Scanning.Interval, func() {
		e.scanTick(s, epoch)
	})
	s.changed()
}

// StartFixing enters the fixing phase with its own ticker and interval.
func (e *Engine) StartFixing(s *Session) {
	e.CancelAll(s)
	s.Err = ""
	s.Progress = 0
	e.setStage(s, StageFixing)

	epoch := s.epoch
	s.fixTicker = e.sched.Every(e.tun.Fixing.Interval, func() {
		e.fixTick(s, epoch)
	})
	s.changed()
}

// CancelAll stops every ticker of s. It is safe to call at any time and any
// number of times; a tick already queued by the host becomes a no-op.
func (e *Engine) CancelAll(s *Session) {
	s.epoch++
	if s.scanTicker != nil {
		s.scanTicker.Stop()
		s.scanTicker = nil
	}
	if s.fixTicker != nil {
		s.fixTicker.Stop()
		s.fixTicker = nil
	}
}

// Reset cancels s and returns it to idle with no progress, issues or error.
// Unlike the tick handlers it does not fire the session's change hook; the
// caller publishes.
func (e *Engine) Reset(s *Session) {
	e.CancelAll(s)
	s.Running = false
	s.Clear()
	e.setStage(s, StageIdle)
}

// Fail cancels s and ends it in StageError with message. The change hook is
// left to the caller, as with Reset.
func (e *Engine) Fail(s *Session, message string) {
	e.CancelAll(s)
	s.Err = message
	s.Running = false
	s.FinishedAt = e.now()
	e.setStage(s, StageError)
}

func (e *Engine) scanTick(s *Session, epoch uint64) {
	if s.epoch != epoch || s.Stage != StageScanning {
		return
	}
	tun := e.tun.Scanning

	if e.trial(tun.FaultProbability) {
		e.fault(s, StageScanning, ScanFaultMessage)
		return
	}

	s.Progress += tun.Step

	// Discovery runs before any hand-off so new issues are only ever
	// appended while the stage is still scanning.
	if e.trial(tun.DiscoveryProbability) {
		issue := Issue{
			ID:           e.newID(),
			Name:         e.catalog[e.rng.IntN(len(e.catalog))],
			DiscoveredAt: e.now(),
		}
		s.Issues = append(s.Issues, issue)
		e.observer.IssueDiscovered(s.ID, issue)
	}

	if s.Progress >= 100 {
		s.Progress = 100
		s.changed()
		e.StartFixing(s)
		return
	}
	s.changed()
}

func (e *Engine) fixTick(s *Session, epoch uint64) {
	if s.epoch != epoch || s.Stage != StageFixing {
		return
	}
	tun := e.tun.Fixing

	if e.trial(tun.FaultProbability) {
		e.fault(s, StageFixing, FixFaultMessage)
		return
	}

	s.Progress += tun.Step
	if s.Progress >= 100 {
		s.Progress = 100
		s.changed()
		e.CancelAll(s)
		now := e.now()
		for i := range s.Issues {
			if s.Issues[i].Fixed {
				continue
			}
			s.Issues[i].Fixed = true
			s.Issues[i].FixedAt = now
			e.observer.IssueFixed(s.ID, s.Issues[i], true)
		}
		s.Running = false
		s.FinishedAt = now
		e.setStage(s, StageComplete)
		s.changed()
		return
	}

	if open := s.unfixed(); len(open) > 0 && e.trial(tun.RepairProbability) {
		i := open[e.rng.IntN(len(open))]
		s.Issues[i].Fixed = true
		s.Issues[i].FixedAt = e.now()
		e.observer.IssueFixed(s.ID, s.Issues[i], false)
	}
	s.changed()
}

// fault ends the run in StageError. Progress and issues are kept as they are.
func (e *Engine) fault(s *Session, phase Stage, message string) {
	e.CancelAll(s)
	s.Err = message
	s.Running = false
	s.FinishedAt = e.now()
	e.observer.FaultInjected(s.ID, phase, message)
	e.setStage(s, StageError)
	s.changed()
}

func (e *Engine) setStage(s *Session, to Stage) {
	from := s.Stage
	if from == to {
		return
	}
	s.Stage = to
	e.observer.StageChanged(s.ID, from, to)
}

// trial draws once and succeeds with probability p.
func (e *Engine) trial(p float64) bool {
	return e.rng.Float64() < p
}
