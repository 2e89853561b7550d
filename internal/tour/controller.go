// Package tour implements the guided walkthrough: a fixed step sequence
// with one current index, optional side-effecting steps executed against
// the dashboard view, and spoken narration for every step shown.
package tour

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp-run/scdash/internal/dashboard"
	"github.com/warp-run/scdash/internal/session"
)

// defaultSettleDelay is how long the controller waits after a step action
// so the view can re-render before the next tooltip positions itself.
const defaultSettleDelay = 500 * time.Millisecond

// Narrator voices step content and can be silenced when the tour ends.
type Narrator interface {
	Speak(text, lang string)
	Stop()
}

// State is a snapshot of the walkthrough. When run is false the steps are
// always empty and the index is zero.
type State struct {
	Run   bool   `json:"run"`
	Steps []Step `json:"steps"`
	Index int    `json:"stepIndex"`
}

// Controller owns the step machine. Step transitions are serialized: an
// advance that arrives while another is settling is dropped.
type Controller struct {
	narrator    Narrator
	settleDelay time.Duration
	log         *log.Entry

	mu        sync.Mutex
	handle    dashboard.Handle
	run       bool
	steps     []Step
	index     int
	advancing bool
}

// Option configures the controller.
type Option func(*Controller)

// WithSettleDelay overrides the post-action settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settleDelay = d }
}

// NewController builds a controller. The narrator may be nil (no speech).
func NewController(narrator Narrator, opts ...Option) *Controller {
	c := &Controller{
		narrator:    narrator,
		settleDelay: defaultSettleDelay,
		log:         log.WithField("component", "tour"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHandle wires the dashboard view the side-effecting steps drive.
func (c *Controller) SetHandle(h dashboard.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = h
}

// Running reports whether a tour is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

// State snapshots the walkthrough.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := State{Run: c.run, Index: c.index}
	state.Steps = append(state.Steps, c.steps...)
	if state.Steps == nil {
		state.Steps = []Step{}
	}
	return state
}

// Start begins the tour for a page, selecting the sequence by role, and
// narrates the first step.
func (c *Controller) Start(page Page, role session.Role) error {
	steps := StepsFor(page, role)
	if len(steps) == 0 {
		return fmt.Errorf("no tour defined for page %q", page)
	}

	c.mu.Lock()
	c.run = true
	c.steps = steps
	c.index = 0
	c.advancing = false
	first := steps[0]
	c.mu.Unlock()

	c.log.WithFields(log.Fields{"page": page, "steps": len(steps)}).Info("tour started")
	c.narrate(first)
	return nil
}

// Next executes the current step's action (if any), waits for the settle
// delay, then advances. Advancing past the last step finishes the tour.
func (c *Controller) Next() error {
	return c.advance(+1)
}

// Previous steps back one index. Stepping back from the first step is a
// no-op.
func (c *Controller) Previous() error {
	return c.advance(-1)
}

func (c *Controller) advance(delta int) error {
	c.mu.Lock()
	if !c.run {
		c.mu.Unlock()
		return fmt.Errorf("no tour is running")
	}
	if c.advancing {
		// a previous advance is still settling; drop this one
		c.mu.Unlock()
		return nil
	}
	c.advancing = true
	step := c.steps[c.index]
	handle := c.handle
	c.mu.Unlock()

	// Side effects only apply when moving forward past the step.
	if delta > 0 && step.Action != nil {
		if err := c.execute(handle, *step.Action); err != nil {
			c.log.WithError(err).Warn("tour step action failed")
		}
		time.Sleep(c.settleDelay)
	}

	c.mu.Lock()
	if !c.run {
		// the tour ended while we were settling
		c.advancing = false
		c.mu.Unlock()
		return nil
	}
	c.advancing = false
	next := c.index + delta
	if next < 0 {
		c.mu.Unlock()
		return nil
	}
	if next >= len(c.steps) {
		c.mu.Unlock()
		c.End()
		return nil
	}
	c.index = next
	current := c.steps[next]
	c.mu.Unlock()

	c.narrate(current)
	return nil
}

// Skip terminates the tour the same way finishing does.
func (c *Controller) Skip() {
	c.End()
}

// End stops narration and resets the tour to its idle state.
func (c *Controller) End() {
	c.mu.Lock()
	wasRunning := c.run
	c.run = false
	c.steps = nil
	c.index = 0
	c.advancing = false
	c.mu.Unlock()

	if c.narrator != nil {
		c.narrator.Stop()
	}
	if wasRunning {
		c.log.Info("tour ended")
	}
}

func (c *Controller) execute(handle dashboard.Handle, action StepAction) error {
	if handle == nil {
		return fmt.Errorf("no dashboard handle attached")
	}
	switch action.Type {
	case ActionChangeView:
		return handle.ChangeView(action.Payload)
	case ActionOpenReportModal:
		return handle.OpenReportModal(action.Payload)
	case ActionCloseReportModal:
		handle.CloseReportModal()
		return nil
	default:
		return fmt.Errorf("unknown step action %q", action.Type)
	}
}

func (c *Controller) narrate(step Step) {
	if c.narrator == nil {
		return
	}
	c.narrator.Speak(step.Content, "en")
}
