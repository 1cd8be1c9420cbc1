package debugsim

import (
	"math/rand/v2"
	"time"
)

// Scheduler is the host timer facility. Every must arrange for fn to be
// called once per interval on the host's event loop until the returned
// Ticker is stopped. It must never call fn synchronously from Every.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Ticker
}

// Ticker is a handle to a repeating callback.
//
// Stop is called from the event loop. After it returns, fn must not run
// again, even for a tick that was already queued.
type Ticker interface {
	Stop()
}

// Random is the source of every probabilistic decision the engine makes.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	// Float64 returns a uniform draw in [0.0, 1.0).
	Float64() float64
	// IntN returns a uniform draw in [0, n).
	IntN(n int) int
}

// NewRandom returns a PCG-backed Random. A zero seed picks a random one.
// The result is not safe for concurrent use.
func NewRandom(seed uint64) Random {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
