// Package tui is the terminal front end of the debug tool. bubbletea's
// Update loop is the event loop the engine ticks on.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/logging"
)

const (
	defaultWidth   = 80
	activityHeight = 12
)

// Options configures the model. Zero values select the engine defaults.
type Options struct {
	Tunables debugsim.Tunables
	Catalog  []string
	Random   debugsim.Random
	// Debug opens the activity panel on start.
	Debug bool
	Now   func() time.Time
}

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int

	ctrl     *debugtool.Controller
	sched    *Scheduler
	activity *ActivityLog
	now      func() time.Time

	keys     KeyMap
	help     help.Model
	progress progress.Model
	spinner  spinner.Model

	showActivity bool
	quitting     bool
}

// NewModel wires a controller to a bubbletea-driven scheduler.
func NewModel(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tunables == (debugsim.Tunables{}) {
		opts.Tunables = debugsim.DefaultTunables()
	}

	sched := NewScheduler()
	activity := NewActivityLog(100, opts.Now)
	engine := debugsim.NewEngine(sched,
		debugsim.WithTunables(opts.Tunables),
		debugsim.WithCatalog(opts.Catalog),
		debugsim.WithRandom(opts.Random),
		debugsim.WithObserver(activity),
		debugsim.WithClock(opts.Now),
	)

	return Model{
		ctrl:         debugtool.New(engine, debugtool.WithLogger(logging.Discard())),
		sched:        sched,
		activity:     activity,
		now:          opts.Now,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StageScanningStyle)),
		showActivity: opts.Debug,
	}
}

// Snapshot returns the controller's current state.
func (m Model) Snapshot() debugtool.Snapshot {
	return m.ctrl.Snapshot()
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-16, 10), 60)
		return m, nil

	case tickMsg:
		return m, m.sched.Fire(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Reset()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.showActivity = !m.showActivity
		return m, nil
	}

	if !m.ctrl.Visible() {
		if key.Matches(msg, m.keys.Open) {
			m.ctrl.Open()
		}
		return m, m.sched.Flush()
	}

	switch {
	case key.Matches(msg, m.keys.Start):
		if m.ctrl.Snapshot().Stage == debugsim.StageError {
			m.ctrl.Retry()
		} else {
			m.ctrl.Start()
		}
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
	case key.Matches(msg, m.keys.Close):
		m.ctrl.Close()
	}
	return m, m.sched.Flush()
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	snap := m.ctrl.Snapshot()

	header := HeaderStyle.Render("BUGSU") + SubtitleStyle.Render("  AI Bug Hunter · Debug Tool")

	var body string
	if snap.Visible {
		body = PanelStyle.Width(width - 2).Render(m.renderTool(snap))
	} else {
		body = PanelStyle.Width(width - 2).Render(
			DimStyle.Render("Debug tool closed.") + "\n" +
				SubtitleStyle.Render("Press o to open it again."),
		)
	}

	parts := []string{header, body}
	if m.showActivity {
		parts = append(parts, m.activity.Render(width-2, activityHeight))
	}
	parts = append(parts, StatusBarStyle.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTool(snap debugtool.Snapshot) string {
	var b strings.Builder

	b.WriteString(PanelTitleStyle.Render("Debug Tool"))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus(snap))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(float64(snap.Progress) / 100))
	b.WriteString(fmt.Sprintf(" %3d%%", snap.Progress))
	b.WriteString("\n\n")
	b.WriteString(renderIssues(snap))

	if hint := stageHint(snap.Stage); hint != "" {
		b.WriteString("\n\n")
		b.WriteString(DimStyle.Render(hint))
	}
	return b.String()
}

func (m Model) renderStatus(snap debugtool.Snapshot) string {
	switch snap.Stage {
	case debugsim.StageScanning:
		return m.spinner.View() + " " + StageScanningStyle.Render("Scanning for issues...")
	case debugsim.StageFixing:
		return m.spinner.View() + " " + StageFixingStyle.Render("Applying fixes...")
	case debugsim.StageComplete:
		return SuccessStyle.Render(fmt.Sprintf("✓ Debugging complete: %d issues fixed in %.1fs",
			snap.FixedCount(), snap.Elapsed(m.now()).Seconds()))
	case debugsim.StageError:
		return ErrorStyle.Render("✗ " + snap.Error)
	default:
		return StatusIdleStyle.Render("○ Ready")
	}
}

func renderIssues(snap debugtool.Snapshot) string {
	if len(snap.Issues) == 0 {
		if snap.Stage == debugsim.StageIdle {
			return DimStyle.Render("No scan run yet")
		}
		return DimStyle.Render("No issues found")
	}

	lines := []string{
		fmt.Sprintf("Issues: %d found · %d fixed", len(snap.Issues), snap.FixedCount()),
	}
	for _, issue := range snap.Issues {
		if issue.Fixed {
			lines = append(lines, IssueFixedStyle.Render("  ✓ "+issue.Name))
		} else {
			lines = append(lines, IssueOpenStyle.Render("  • "+issue.Name))
		}
	}
	return strings.Join(lines, "\n")
}

// stageHint names what the start key does next, if anything.
func stageHint(stage debugsim.Stage) string {
	switch stage {
	case debugsim.StageIdle:
		return "Press enter to start scanning"
	case debugsim.StageComplete:
		return "Press enter to run again"
	case debugsim.StageError:
		return "Press enter to retry"
	}
	return ""
}
