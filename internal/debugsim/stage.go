package debugsim

// Stage is the current phase of a debug run.
type Stage string

const (
	StageIdle     Stage = "idle"
	StageScanning Stage = "scanning"
	StageFixing   Stage = "fixing"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
)

// IsWorking reports whether the stage advances on ticks.
func (s Stage) IsWorking() bool {
	return s == StageScanning || s == StageFixing
}

// IsTerminal reports whether a run has ended, successfully or not.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageError
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageIdle, StageScanning, StageFixing, StageComplete, StageError:
		return true
	}
	return false
}

// User-facing messages attached to a session that ends in StageError.
const (
	ScanFaultMessage   = "Connection interrupted during scanning process"
	FixFaultMessage    = "Unable to apply fixes - system resource limit reached"
	StartFailedMessage = "Failed to start debug process"
)
