package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// tickMsg is delivered by tea.Tick for one scheduled engine ticker.
type tickMsg struct {
	t *teaTicker
}

type teaTicker struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *teaTicker) Stop() {
	t.stopped = true
}

// Scheduler implements debugsim.Scheduler on top of bubbletea's event
// loop. Every only records a tea.Tick command; Update must hand the result
// of Flush back to bubbletea so the tick is actually armed. A ticker's
// message arriving after Stop is dropped and never re-armed.
type Scheduler struct {
	pending []tea.Cmd
	live    []*teaTicker
}

var _ debugsim.Scheduler = (*Scheduler)(nil)

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Every(interval time.Duration, fn func()) debugsim.Ticker {
	t := &teaTicker{interval: interval, fn: fn}
	s.live = append(s.live, t)
	s.arm(t)
	return t
}

func (s *Scheduler) arm(t *teaTicker) {
	s.pending = append(s.pending, tea.Tick(t.interval, func(time.Time) tea.Msg {
		return tickMsg{t: t}
	}))
}

// Fire runs one tick and re-arms its ticker if it is still live.
func (s *Scheduler) Fire(msg tickMsg) tea.Cmd {
	t := msg.t
	if t == nil || t.stopped {
		return s.Flush()
	}
	t.fn()
	if !t.stopped {
		s.arm(t)
	}
	return s.Flush()
}

// Flush returns every tick armed since the last call, batched.
func (s *Scheduler) Flush() tea.Cmd {
	s.prune()
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

// Live returns the number of tickers not yet stopped.
func (s *Scheduler) Live() int {
	s.prune()
	return len(s.live)
}

func (s *Scheduler) prune() {
	live := s.live[:0]
	for _, t := range s.live {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.live = live
}
