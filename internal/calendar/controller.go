package calendar

import (
	"time"
)

// State is the drag controller state.
type State int

const (
	StateIdle     State = iota
	StatePending        // gesture started, activation constraint not met yet
	StateDragging
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Outcome is how a gesture ended.
type Outcome int

const (
	OutcomeIgnored   Outcome = iota // the call did not apply to the current state
	OutcomeDropped                  // released over a day: scheduling was attempted
	OutcomeDiscarded                // released elsewhere, or never activated
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "ignored"
	}
}

// Scheduler applies the add-to-date mutation for a drop. It reports whether the
// calendar changed; a no-op is not an error.
type Scheduler interface {
	Schedule(planID, dateKey string) bool
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(planID, dateKey string) bool

func (f SchedulerFunc) Schedule(planID, dateKey string) bool { return f(planID, dateKey) }

// DropResult describes the end of a gesture.
type DropResult struct {
	Outcome Outcome
	PlanID  string
	DateKey string // set when Outcome is OutcomeDropped
	Changed bool   // whether the scheduler changed the calendar
}

type dragState struct {
	planID    string
	device    Device
	startedAt time.Time
}

// Controller turns gestures reported by the calendar view into at most one
// schedule mutation per gesture. It handles one drag at a time and is meant to be
// driven from a single goroutine.
type Controller struct {
	scheduler Scheduler
	sensors   Sensors
	now       func() time.Time

	state State
	drag  dragState
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSensors overrides the activation constraints.
func WithSensors(s Sensors) ControllerOption {
	return func(c *Controller) { c.sensors = s }
}

// WithClock overrides the time source used for touch delays.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller in the idle state.
func NewController(scheduler Scheduler, opts ...ControllerOption) *Controller {
	c := &Controller{
		scheduler: scheduler,
		sensors:   DefaultSensors(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// ActivePlan returns the plan being dragged, if a drag is active.
func (c *Controller) ActivePlan() (string, bool) {
	if c.state != StateDragging {
		return "", false
	}
	return c.drag.planID, true
}

// Start begins a gesture on a plan's drag handle. It returns false and changes
// nothing when a gesture is already in progress or planID is empty.
func (c *Controller) Start(planID string, device Device) bool {
	if c.state != StateIdle || planID == "" {
		return false
	}
	if device != DeviceTouch {
		device = DevicePointer
	}
	c.drag = dragState{planID: planID, device: device, startedAt: c.now()}
	c.state = StatePending
	return true
}

// Move reports the pointer displacement from the gesture start and returns the
// resulting state. A pending gesture activates once its device constraint is met;
// a touch gesture that moves too far too early is treated as a scroll and aborted.
func (c *Controller) Move(dx, dy float64) State {
	if c.state != StatePending {
		return c.state
	}
	switch c.sensors.evaluate(c.drag.device, dx, dy, c.now().Sub(c.drag.startedAt)) {
	case activationActive:
		c.state = StateDragging
	case activationAborted:
		c.reset()
	}
	return c.state
}

// End finishes the gesture. targetID is the drop target under the release point,
// or "" for none. Only an active drag released over a day target reaches the
// scheduler; the controller returns to idle in every case.
func (c *Controller) End(targetID string) DropResult {
	switch c.state {
	case StateIdle:
		return DropResult{Outcome: OutcomeIgnored}
	case StatePending:
		res := DropResult{Outcome: OutcomeDiscarded, PlanID: c.drag.planID}
		c.reset()
		return res
	}

	planID := c.drag.planID
	c.reset()

	dateKey, ok := ParseDropTarget(targetID)
	if !ok {
		return DropResult{Outcome: OutcomeDiscarded, PlanID: planID}
	}
	changed := c.scheduler.Schedule(planID, dateKey)
	return DropResult{Outcome: OutcomeDropped, PlanID: planID, DateKey: dateKey, Changed: changed}
}

// Cancel abandons the gesture without any mutation.
func (c *Controller) Cancel() Outcome {
	if c.state == StateIdle {
		return OutcomeIgnored
	}
	c.reset()
	return OutcomeCancelled
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.drag = dragState{}
}
