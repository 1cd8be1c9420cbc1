// Package debugsimtest provides deterministic stand-ins for the debugsim
// host facilities: a manually advanced clock that doubles as a Scheduler,
// and a scripted Random.
package debugsimtest

import (
	"time"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// Epoch is the wall-clock time a new Clock starts at.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Clock is a single-threaded fake timer facility. Nothing fires until the
// test calls Advance or Step; callbacks run on the caller's goroutine, in
// due-time order, ties broken by scheduling order.
type Clock struct {
	elapsed time.Duration
	seq     int
	tickers []*ticker
}

type ticker struct {
	interval time.Duration
	next     time.Duration
	seq      int
	fn       func()
	stopped  bool
}

func (t *ticker) Stop() {
	t.stopped = true
}

// NewClock returns a clock positioned at Epoch.
func NewClock() *Clock {
	return &Clock{}
}

// Every implements debugsim.Scheduler.
func (c *Clock) Every(interval time.Duration, fn func()) debugsim.Ticker {
	if interval <= 0 {
		panic("debugsimtest: non-positive interval")
	}
	t := &ticker{
		interval: interval,
		next:     c.elapsed + interval,
		seq:      c.seq,
		fn:       fn,
	}
	c.seq++
	c.tickers = append(c.tickers, t)
	return t
}

// Now returns Epoch plus the simulated elapsed time.
func (c *Clock) Now() time.Time {
	return Epoch.Add(c.elapsed)
}

// Advance moves time forward by d, firing every tick that falls due.
func (c *Clock) Advance(d time.Duration) {
	target := c.elapsed + d
	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		c.fire(t)
	}
	c.elapsed = target
	c.prune()
}

// Step jumps to the next due tick and fires it. It returns false when no
// ticker is active.
func (c *Clock) Step() bool {
	t := c.nextDue(-1)
	if t == nil {
		return false
	}
	c.fire(t)
	c.prune()
	return true
}

// Active returns the number of tickers that have not been stopped.
func (c *Clock) Active() int {
	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (c *Clock) fire(t *ticker) {
	c.elapsed = t.next
	t.next += t.interval
	t.fn()
}

// nextDue returns the earliest live ticker due at or before limit; a
// negative limit means no limit.
func (c *Clock) nextDue(limit time.Duration) *ticker {
	var best *ticker
	for _, t := range c.tickers {
		if t.stopped || (limit >= 0 && t.next > limit) {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (c *Clock) prune() {
	live := c.tickers[:0]
	for _, t := range c.tickers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.tickers = live
}

// Rand is a scripted debugsim.Random. Float64 returns the queued Floats in
// order and then Default; IntN returns the queued Ints (modulo n) and then 0.
type Rand struct {
	Floats  []float64
	Ints    []int
	Default float64

	fi, ii int
}

// Fixed returns a Rand whose every Float64 draw is f.
func Fixed(f float64) *Rand {
	return &Rand{Default: f}
}

func (r *Rand) Float64() float64 {
	if r.fi < len(r.Floats) {
		v := r.Floats[r.fi]
		r.fi++
		return v
	}
	return r.Default
}

func (r *Rand) IntN(n int) int {
	if r.ii < len(r.Ints) {
		v := r.Ints[r.ii]
		r.ii++
		return v % n
	}
	return 0
}

// Draws returns how many Float64 values have been consumed from Floats.
func (r *Rand) Draws() int {
	return r.fi
}
