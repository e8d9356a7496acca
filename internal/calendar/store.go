package calendar

import (
	"context"

	"alcyxob/workout-tracker/internal/domain"
)

// Store is the remote side of a calendar session: it persists the aggregate and
// signals, without payload, that the remote copy changed.
type Store interface {
	Fetch(ctx context.Context) (domain.CalendarData, error)
	Persist(ctx context.Context, cal domain.CalendarData) error
	// Subscribe registers onChange, called at least once per remote change.
	Subscribe(onChange func()) error
	// Unsubscribe releases the subscription. Calling it more than once is harmless.
	Unsubscribe()
}

// MutationOp is an incremental calendar change.
type MutationOp string

const (
	OpSchedule   MutationOp = "schedule"
	OpUnschedule MutationOp = "unschedule"
	OpSavePlan   MutationOp = "save_plan"
	OpDeletePlan MutationOp = "delete_plan"
)

// Mutation is one change to the calendar: an add-to-date or remove-from-date,
// or a plan edit. Plan is set for OpSavePlan only.
type Mutation struct {
	Op      MutationOp          `json:"op"`
	PlanID  string              `json:"planId"`
	DateKey string              `json:"date,omitempty"`
	Plan    *domain.WorkoutPlan `json:"plan,omitempty"`
}

// Apply applies m to cal.
func (m Mutation) Apply(cal domain.CalendarData) domain.CalendarData {
	switch m.Op {
	case OpSchedule:
		return domain.AddPlanToDate(cal, m.PlanID, m.DateKey)
	case OpUnschedule:
		return domain.RemovePlanFromDate(cal, m.PlanID, m.DateKey)
	case OpSavePlan:
		if m.Plan != nil {
			return domain.UpsertPlan(cal, *m.Plan)
		}
	case OpDeletePlan:
		return domain.DeletePlan(cal, m.PlanID)
	}
	return cal
}

// changes reports whether applying m turned before into a different calendar.
func (m Mutation) changes(before, after domain.CalendarData) bool {
	switch m.Op {
	case OpSchedule, OpUnschedule:
		return before.IsScheduled(m.PlanID, m.DateKey) != after.IsScheduled(m.PlanID, m.DateKey)
	case OpSavePlan:
		return m.Plan != nil
	case OpDeletePlan:
		return before.HasPlan(m.PlanID)
	}
	return false
}

// MutationStore is implemented by stores that can apply calendar changes
// atomically on the remote copy. Sessions prefer it over persisting the whole
// aggregate, so concurrent changes from other devices are not overwritten.
type MutationStore interface {
	Store
	ApplyMutation(ctx context.Context, m Mutation) error
}
