package debugsim

// Observer receives engine events as they happen, on the event loop.
// Implementations must not block and must not call back into the engine.
type Observer interface {
	StageChanged(sessionID string, from, to Stage)
	IssueDiscovered(sessionID string, issue Issue)
	// IssueFixed reports a repair; forced is true for the bulk closure at
	// the end of the fixing phase.
	IssueFixed(sessionID string, issue Issue, forced bool)
	FaultInjected(sessionID string, phase Stage, message string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StageChanged(string, Stage, Stage)   {}
func (NopObserver) IssueDiscovered(string, Issue)       {}
func (NopObserver) IssueFixed(string, Issue, bool)      {}
func (NopObserver) FaultInjected(string, Stage, string) {}

// MultiObserver fans events out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) StageChanged(id string, from, to Stage) {
	for _, o := range m {
		o.StageChanged(id, from, to)
	}
}

func (m MultiObserver) IssueDiscovered(id string, issue Issue) {
	for _, o := range m {
		o.IssueDiscovered(id, issue)
	}
}

func (m MultiObserver) IssueFixed(id string, issue Issue, forced bool) {
	for _, o := range m {
		o.IssueFixed(id, issue, forced)
	}
}

func (m MultiObserver) FaultInjected(id string, phase Stage, message string) {
	for _, o := range m {
		o.FaultInjected(id, phase, message)
	}
}
