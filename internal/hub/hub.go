// Package hub keeps many debug-tool sessions on one event loop and fans
// their snapshots out to subscribers.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/eventloop"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrUnknownCommand  = errors.New("unknown command")
)

// Command is a user command sent to a session.
type Command string

const (
	CommandStart Command = "start"
	CommandRetry Command = "retry"
	CommandReset Command = "reset"
	CommandClose Command = "close"
	CommandOpen  Command = "open"
)

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandStart, CommandRetry, CommandReset, CommandClose, CommandOpen:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Gauge is the subset of a metrics gauge the manager reports the session
// count to.
type Gauge interface {
	Set(float64)
}

// Options configures a Manager.
type Options struct {
	// MaxSessions caps concurrent sessions; zero means unlimited.
	MaxSessions int
	// IdleTTL is how long a session may go untouched before Sweep drops it.
	IdleTTL time.Duration
	Logger  *slog.Logger
	Gauge   Gauge
	Now     func() time.Time
}

const subscriberBuffer = 16

type subscriber struct {
	ch        chan debugtool.Snapshot
	closeOnce sync.Once
}

func (sub *subscriber) close() {
	sub.closeOnce.Do(func() { close(sub.ch) })
}

// send never blocks. When the buffer is full the oldest snapshot is dropped;
// a slow reader only ever misses intermediate states.
func (sub *subscriber) send(s debugtool.Snapshot) {
	select {
	case sub.ch <- s:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- s:
	default:
	}
}

type entry struct {
	ctrl     *debugtool.Controller
	subs     []*subscriber
	lastSeen time.Time
}

func (e *entry) broadcast(s debugtool.Snapshot) {
	for _, sub := range e.subs {
		sub.send(s)
	}
}

func (e *entry) closeSubscribers() {
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
}

// Manager owns sessions. Its map is only touched on the loop goroutine;
// exported methods hop onto the loop and wait.
type Manager struct {
	loop     *eventloop.Loop
	engine   *debugsim.Engine
	opts     Options
	logger   *slog.Logger
	sessions map[string]*entry
}

// NewManager creates a manager whose sessions tick on loop.
func NewManager(loop *eventloop.Loop, engine *debugsim.Engine, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		loop:     loop,
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*entry),
	}
}

// Engine returns the engine shared by all sessions.
func (m *Manager) Engine() *debugsim.Engine {
	return m.engine
}

// Create starts a new idle, visible session.
func (m *Manager) Create(ctx context.Context) (debugtool.Snapshot, error) {
	var (
		snap debugtool.Snapshot
		err  error
	)
	doErr := m.loop.Do(ctx, func() {
		if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
			err = ErrTooManySessions
			return
		}
		e := &entry{lastSeen: m.opts.Now()}
		e.ctrl = debugtool.New(m.engine,
			debugtool.WithLogger(m.logger),
			debugtool.OnChange(e.broadcast),
		)
		m.sessions[e.ctrl.ID()] = e
		m.report()
		snap = e.ctrl.Snapshot()
		m.logger.Info("session created", "session", snap.ID, "sessions", len(m.sessions))
	})
	if doErr != nil {
		return debugtool.Snapshot{}, doErr
	}
	return snap, err
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(ctx context.Context, id string) (debugtool.Snapshot, error) {
	return m.with(ctx, id, func(e *entry) {})
}

// Exec runs cmd against a session and returns the resulting snapshot.
func (m *Manager) Exec(ctx context.Context, id string, cmd Command) (debugtool.Snapshot, error) {
	if _, err := ParseCommand(string(cmd)); err != nil {
		return debugtool.Snapshot{}, err
	}
	return m.with(ctx, id, func(e *entry) {
		switch cmd {
		case CommandStart:
			e.ctrl.Start()
		case CommandRetry:
			e.ctrl.Retry()
		case CommandReset:
			e.ctrl.Reset()
		case CommandClose:
			e.ctrl.Close()
		case CommandOpen:
			e.ctrl.Open()
		}
	})
}

func (m *Manager) with(ctx context.Context, id string, fn func(*entry)) (debugtool.Snapshot, error) {
	var (
		snap  debugtool.Snapshot
		found bool
	)
	err := m.loop.Do(ctx, func() {
		e, ok := m.sessions[id]
		if !ok {
			return
		}
		found = true
		e.lastSeen = m.opts.Now()
		fn(e)
		snap = e.ctrl.Snapshot()
	})
	if err != nil {
		return debugtool.Snapshot{}, err
	}
	if !found {
		return debugtool.Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return snap, nil
}

// Delete cancels a session's run and removes it. Subscribers see their
// channel close.
func (m *Manager) Delete(ctx context.Context, id string) error {
	var found bool
	err := m.loop.Do(ctx, func() {
		if _, ok := m.sessions[id]; ok {
			found = true
			m.remove(id)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func (m *Manager) remove(id string) {
	e := m.sessions[id]
	e.ctrl.Reset()
	e.closeSubscribers()
	delete(m.sessions, id)
	m.report()
	m.logger.Info("session removed", "session", id, "sessions", len(m.sessions))
}

// Len returns the number of live sessions.
func (m *Manager) Len(ctx context.Context) (int, error) {
	var n int
	err := m.loop.Do(ctx, func() { n = len(m.sessions) })
	return n, err
}

// Subscribe returns a channel that receives the session's current snapshot
// followed by every later one. The channel is closed when the session is
// removed or cancel is called.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan debugtool.Snapshot, func(), error) {
	sub := &subscriber{ch: make(chan debugtool.Snapshot, subscriberBuffer)}
	_, err := m.with(ctx, id, func(e *entry) {
		e.subs = append(e.subs, sub)
		sub.send(e.ctrl.Snapshot())
	})
	if err != nil {
		return nil, nil, err
	}

	cancel := func() {
		m.loop.Post(func() {
			if e, ok := m.sessions[id]; ok {
				for i, s := range e.subs {
					if s == sub {
						e.subs = append(e.subs[:i], e.subs[i+1:]...)
						break
					}
				}
				e.lastSeen = m.opts.Now()
			}
			sub.close()
		})
	}
	return sub.ch, cancel, nil
}

// Sweep removes sessions untouched for longer than the idle TTL. Sessions
// with a live subscriber are kept.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m.opts.IdleTTL <= 0 {
		return 0, nil
	}
	var removed int
	err := m.loop.Do(ctx, func() {
		cutoff := m.opts.Now().Add(-m.opts.IdleTTL)
		for id, e := range m.sessions {
			if len(e.subs) > 0 || e.lastSeen.After(cutoff) {
				continue
			}
			m.remove(id)
			removed++
		}
	})
	return removed, err
}

// StartCleanupLoop sweeps idle sessions every interval until ctx is done.
func (m *Manager) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.opts.IdleTTL <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := m.Sweep(ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) && !errors.Is(err, eventloop.ErrStopped) {
						m.logger.Warn("session sweep failed", "error", err)
					}
					continue
				}
				if n > 0 {
					m.logger.Info("swept idle sessions", "removed", n)
				}
			}
		}
	}()
}

// Shutdown removes every session, closing all subscriber channels.
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.loop.Do(ctx, func() {
		for id := range m.sessions {
			m.remove(id)
		}
	})
}

func (m *Manager) report() {
	if m.opts.Gauge != nil {
		m.opts.Gauge.Set(float64(len(m.sessions)))
	}
}
