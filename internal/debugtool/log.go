package debugtool

import (
	"log/slog"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// LogObserver writes engine events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer logging to l, or to slog.Default when
// l is nil.
func NewLogObserver(l *slog.Logger) LogObserver {
	if l == nil {
		l = slog.Default()
	}
	return LogObserver{Logger: l}
}

func (o LogObserver) StageChanged(id string, from, to debugsim.Stage) {
	o.Logger.Info("stage changed", "session", id, "from", from, "to", to)
}

func (o LogObserver) IssueDiscovered(id string, issue debugsim.Issue) {
	o.Logger.Debug("issue discovered", "session", id, "issue", issue.ID, "name", issue.Name)
}

func (o LogObserver) IssueFixed(id string, issue debugsim.Issue, forced bool) {
	o.Logger.Debug("issue fixed", "session", id, "issue", issue.ID, "forced", forced)
}

func (o LogObserver) FaultInjected(id string, phase debugsim.Stage, message string) {
	o.Logger.Warn("run failed", "session", id, "phase", phase, "error", message)
}
