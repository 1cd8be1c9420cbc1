package debugsim

import (
	"fmt"
	"time"
)

// ScanTunables configures the scanning phase.
type ScanTunables struct {
	// Interval between scanning ticks. Default: 200ms.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Step is the progress added per tick. Default: 5.
	Step int `json:"step" yaml:"step"`

	// FaultProbability is the per-tick chance of aborting the run. Default: 0.01.
	FaultProbability float64 `json:"fault_probability" yaml:"fault_probability"`

	// DiscoveryProbability is the per-tick chance of finding a new issue. Default: 0.3.
	DiscoveryProbability float64 `json:"discovery_probability" yaml:"discovery_probability"`
}

// FixTunables configures the fixing phase.
type FixTunables struct {
	// Interval between fixing ticks. Default: 150ms.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Step is the progress added per tick. Default: 3.
	Step int `json:"step" yaml:"step"`

	// FaultProbability is the per-tick chance of aborting the run. Default: 0.005.
	FaultProbability float64 `json:"fault_probability" yaml:"fault_probability"`

	// RepairProbability is the per-tick chance of fixing one open issue. Default: 0.4.
	RepairProbability float64 `json:"repair_probability" yaml:"repair_probability"`
}

// Tunables holds every recognized engine option.
type Tunables struct {
	Scanning ScanTunables `json:"scanning" yaml:"scanning"`
	Fixing   FixTunables  `json:"fixing" yaml:"fixing"`
}

// DefaultTunables returns the stock timing and probabilities.
func DefaultTunables() Tunables {
	return Tunables{
		Scanning: ScanTunables{
			Interval:             200 * time.Millisecond,
			Step:                 5,
			FaultProbability:     0.01,
			DiscoveryProbability: 0.3,
		},
		Fixing: FixTunables{
			Interval:          150 * time.Millisecond,
			Step:              3,
			FaultProbability:  0.005,
			RepairProbability: 0.4,
		},
	}
}

// Validate checks ranges: positive intervals, steps in 1..100 and
// probabilities in [0,1].
func (t Tunables) Validate() error {
	if err := checkPhase("scanning", t.Scanning.Interval, t.Scanning.Step); err != nil {
		return err
	}
	if err := checkPhase("fixing", t.Fixing.Interval, t.Fixing.Step); err != nil {
		return err
	}
	probs := []struct {
		name string
		p    float64
	}{
		{"scanning.fault_probability", t.Scanning.FaultProbability},
		{"scanning.discovery_probability", t.Scanning.DiscoveryProbability},
		{"fixing.fault_probability", t.Fixing.FaultProbability},
		{"fixing.repair_probability", t.Fixing.RepairProbability},
	}
	for _, pr := range probs {
		if pr.p < 0 || pr.p > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", pr.name, pr.p)
		}
	}
	return nil
}

func checkPhase(name string, interval time.Duration, step int) error {
	if interval <= 0 {
		return fmt.Errorf("%s.interval must be positive, got %s", name, interval)
	}
	if step < 1 || step > 100 {
		return fmt.Errorf("%s.step must be between 1 and 100, got %d", name, step)
	}
	return nil
}
