// Package debugtool is the command surface of one debug-tool session. It
// turns user commands into engine calls and publishes a snapshot after
// every change.
package debugtool

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// Snapshot is the session view plus the tool's visibility.
type Snapshot struct {
	debugsim.Snapshot
	Visible bool `json:"visible"`
}

// Controller owns one session. Like the session it is confined to the
// event loop that runs the engine's ticks.
type Controller struct {
	engine  *debugsim.Engine
	session *debugsim.Session
	visible bool
	logger  *slog.Logger

	onChange func(Snapshot)
	onClose  func()
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithID sets the session ID. Without it a random UUID is used.
func WithID(id string) ControllerOption {
	return func(c *Controller) {
		if id != "" {
			c.session.ID = id
		}
	}
}

// WithLogger sets the logger for command tracing.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnChange registers a callback that receives every published snapshot.
func OnChange(fn func(Snapshot)) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

// OnClose registers a callback run after Close.
func OnClose(fn func()) ControllerOption {
	return func(c *Controller) { c.onClose = fn }
}

// New creates a visible, idle controller.
func New(engine *debugsim.Engine, opts ...ControllerOption) *Controller {
	c := &Controller{
		engine:  engine,
		session: debugsim.NewSession(uuid.NewString()),
		visible: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session.SetOnChange(c.publish)
	return c
}

// ID returns the session ID.
func (c *Controller) ID() string {
	return c.session.ID
}

// Visible reports whether the tool is open.
func (c *Controller) Visible() bool {
	return c.visible
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Snapshot: c.session.Snapshot(), Visible: c.visible}
}

// Start begins a new run. It does nothing while a run is in progress; from
// idle, complete or error it discards the previous results and scans again.
func (c *Controller) Start() {
	s := c.session
	if s.Running {
		c.logger.Debug("start ignored, run in progress", "session", s.ID)
		return
	}
	c.logger.Debug("start", "session", s.ID, "from", s.Stage)

	defer func() {
		if r := recover(); r != nil {
			c.engine.Fail(s, debugsim.StartFailedMessage)
			c.logger.Error("start failed", "session", s.ID, "panic", r)
			c.publish()
		}
	}()

	c.engine.CancelAll(s)
	s.Clear()
	s.Running = true
	s.StartedAt = c.engine.Now()
	c.engine.StartScanning(s)
}

// Retry starts over after a fault. It behaves exactly like Start.
func (c *Controller) Retry() {
	c.Start()
}

// Reset cancels any run and returns to idle with no results.
func (c *Controller) Reset() {
	c.logger.Debug("reset", "session", c.session.ID)
	c.reset()
	c.publish()
}

// Close resets the session and hides the tool.
func (c *Controller) Close() {
	c.logger.Debug("close", "session", c.session.ID)
	c.reset()
	c.visible = false
	c.publish()
	if c.onClose != nil {
		c.onClose()
	}
}

// Open shows the tool again. Whatever the session held before is discarded.
func (c *Controller) Open() {
	c.logger.Debug("open", "session", c.session.ID)
	c.reset()
	c.visible = true
	c.publish()
}

func (c *Controller) reset() {
	c.engine.Reset(c.session)
}

func (c *Controller) publish() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
