package debugsim

import (
	"slices"
	"time"
)

// Session is the mutable aggregate for one debug-tool run: stage, progress,
// issues, error and the ticker handles that drive it.
//
// A Session belongs to exactly one controller and is only touched on that
// controller's event loop, so it carries no locks.
type Session struct {
	ID         string
	Stage      Stage
	Progress   int
	Issues     []Issue
	Err        string
	Running    bool
	StartedAt  time.Time
	FinishedAt time.Time

	scanTicker Ticker
	fixTicker  Ticker
	// epoch is bumped on every cancellation; a tick scheduled under an
	// older epoch is stale and must not touch the session.
	epoch uint64

	onChange func()
}

// NewSession returns an idle session.
func NewSession(id string) *Session {
	return &Session{ID: id, Stage: StageIdle}
}

// SetOnChange registers fn to be called after every engine mutation.
func (s *Session) SetOnChange(fn func()) {
	s.onChange = fn
}

// Ticking reports whether a scanning or fixing ticker is scheduled.
func (s *Session) Ticking() bool {
	return s.scanTicker != nil || s.fixTicker != nil
}

// Clear drops issues, progress, error and timestamps. Stage and the running
// flag are left to the caller.
func (s *Session) Clear() {
	s.Progress = 0
	s.Issues = nil
	s.Err = ""
	s.StartedAt = time.Time{}
	s.FinishedAt = time.Time{}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Session) unfixed() []int {
	var idx []int
	for i, issue := range s.Issues {
		if !issue.Fixed {
			idx = append(idx, i)
		}
	}
	return idx
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	issues := slices.Clone(s.Issues)
	if issues == nil {
		issues = []Issue{}
	}
	return Snapshot{
		ID:         s.ID,
		Stage:      s.Stage,
		Progress:   s.Progress,
		Issues:     issues,
		Error:      s.Err,
		Running:    s.Running,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

// Snapshot is the read-only view handed to presentation layers.
type Snapshot struct {
	ID         string    `json:"id"`
	Stage      Stage     `json:"stage"`
	Progress   int       `json:"progress"`
	Issues     []Issue   `json:"issues"`
	Error      string    `json:"error,omitempty"`
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// FixedCount returns how many issues are fixed.
func (s Snapshot) FixedCount() int {
	n := 0
	for _, issue := range s.Issues {
		if issue.Fixed {
			n++
		}
	}
	return n
}

// UnfixedCount returns how many issues are still open.
func (s Snapshot) UnfixedCount() int {
	return len(s.Issues) - s.FixedCount()
}

// Elapsed returns the run duration. For a run still in progress it is
// measured up to now; for a session that never started it is zero.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := s.FinishedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(s.StartedAt)
}
