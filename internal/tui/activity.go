package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// ActivityLog keeps the most recent engine events for the activity panel.
// It is fed as a debugsim.Observer, so it runs on the bubbletea loop.
type ActivityLog struct {
	lines  []string
	buffer int
	now    func() time.Time
}

var _ debugsim.Observer = (*ActivityLog)(nil)

// NewActivityLog creates a log that keeps the last buffer lines.
func NewActivityLog(buffer int, now func() time.Time) *ActivityLog {
	if buffer < 1 {
		buffer = 100
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityLog{buffer: buffer, now: now}
}

// AddEvent adds a line with the event type shown prominently
func (a *ActivityLog) AddEvent(eventType, details string) {
	line := a.now().Format("15:04:05.000") + " [" + eventType + "]"
	if details != "" {
		line += " " + details
	}
	a.lines = append(a.lines, line)
	if len(a.lines) > a.buffer {
		a.lines = a.lines[len(a.lines)-a.buffer:]
	}
}

// Lines returns the buffered lines, oldest first.
func (a *ActivityLog) Lines() []string {
	return a.lines
}

func (a *ActivityLog) StageChanged(_ string, from, to debugsim.Stage) {
	a.AddEvent("stage", fmt.Sprintf("%s → %s", from, to))
}

func (a *ActivityLog) IssueDiscovered(_ string, issue debugsim.Issue) {
	a.AddEvent("found", issue.Name)
}

func (a *ActivityLog) IssueFixed(_ string, issue debugsim.Issue, forced bool) {
	kind := "fixed"
	if forced {
		kind = "closed"
	}
	a.AddEvent(kind, issue.Name)
}

func (a *ActivityLog) FaultInjected(_ string, phase debugsim.Stage, message string) {
	a.AddEvent("fault", string(phase)+": "+message)
}

// Render draws the panel showing the newest lines that fit.
func (a *ActivityLog) Render(width, height int) string {
	title := lipgloss.NewStyle().
		Foreground(ColorYellow).
		Bold(true).
		Render("ACTIVITY")

	// Title and borders take four rows.
	contentHeight := height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}
	maxLen := width - 4
	if maxLen < 10 {
		maxLen = 10
	}

	start := 0
	if len(a.lines) > contentHeight {
		start = len(a.lines) - contentHeight
	}
	var lines []string
	for _, line := range a.lines[start:] {
		lines = append(lines, truncate(line, maxLen))
	}
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(lines, "\n"))
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
