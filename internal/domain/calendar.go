// internal/domain/calendar.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateKeyLayout is the layout of schedule keys (ISO calendar date).
const DateKeyLayout = "2006-01-02"

// CalendarData is the per-user aggregate of workout plans and the plans scheduled
// on each calendar day. It is loaded, mutated and persisted as one unit.
//
// Operations on CalendarData never modify the receiver in place; they return a new
// value and callers replace their reference with it.
type CalendarData struct {
	Plans             []WorkoutPlan       `bson:"plans" json:"plans"`
	ScheduledWorkouts map[string][]string `bson:"scheduledWorkouts" json:"scheduledWorkouts"`
}

// CalendarDocument is the stored form of a user's calendar.
type CalendarDocument struct {
	UserID       primitive.ObjectID `bson:"_id" json:"userId"`
	CalendarData `bson:",inline"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewCalendarData returns an empty, normalized calendar.
func NewCalendarData() CalendarData {
	return CalendarData{
		Plans:             []WorkoutPlan{},
		ScheduledWorkouts: map[string][]string{},
	}
}

// ValidDateKey reports whether key is an ISO calendar date (YYYY-MM-DD).
func ValidDateKey(key string) bool {
	t, err := time.Parse(DateKeyLayout, key)
	return err == nil && t.Format(DateKeyLayout) == key
}

// DateKey formats t as a schedule key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Clone returns a deep copy of the calendar.
func (c CalendarData) Clone() CalendarData {
	out := CalendarData{
		Plans:             make([]WorkoutPlan, len(c.Plans)),
		ScheduledWorkouts: make(map[string][]string, len(c.ScheduledWorkouts)),
	}
	for i, p := range c.Plans {
		out.Plans[i] = p.Clone()
	}
	for date, ids := range c.ScheduledWorkouts {
		out.ScheduledWorkouts[date] = append([]string(nil), ids...)
	}
	return out
}

// PlanByID looks up a plan. A missing plan is reported with ok == false,
// which is how dangling schedule references surface.
func (c CalendarData) PlanByID(planID string) (WorkoutPlan, bool) {
	for _, p := range c.Plans {
		if p.ID == planID {
			return p, true
		}
	}
	return WorkoutPlan{}, false
}

// HasPlan reports whether planID names an existing plan.
func (c CalendarData) HasPlan(planID string) bool {
	_, ok := c.PlanByID(planID)
	return ok
}

// PlansOn resolves the plans scheduled on dateKey in schedule order.
// References to plans that no longer exist are skipped.
func (c CalendarData) PlansOn(dateKey string) []WorkoutPlan {
	ids := c.ScheduledWorkouts[dateKey]
	plans := make([]WorkoutPlan, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.PlanByID(id); ok {
			plans = append(plans, p)
		}
	}
	return plans
}

// DanglingRefs returns, per date, the scheduled plan IDs that name no plan.
func (c CalendarData) DanglingRefs() map[string][]string {
	dangling := map[string][]string{}
	for date, ids := range c.ScheduledWorkouts {
		for _, id := range ids {
			if !c.HasPlan(id) {
				dangling[date] = append(dangling[date], id)
			}
		}
	}
	return dangling
}

// IsScheduled reports whether planID is scheduled on dateKey.
func (c CalendarData) IsScheduled(planID, dateKey string) bool {
	return indexOf(c.ScheduledWorkouts[dateKey], planID) >= 0
}

// AddPlanToDate returns a calendar where dateKey's list contains planID exactly once,
// appended at the end. The input is returned unchanged when the plan is already on
// that date or when planID does not name an existing plan.
func AddPlanToDate(c CalendarData, planID, dateKey string) CalendarData {
	if !c.HasPlan(planID) || c.IsScheduled(planID, dateKey) {
		return c
	}
	out := c.Clone()
	out.ScheduledWorkouts[dateKey] = append(out.ScheduledWorkouts[dateKey], planID)
	return out
}

// RemovePlanFromDate returns a calendar with one occurrence of planID removed from
// dateKey. A date whose list becomes empty is dropped from the schedule.
func RemovePlanFromDate(c CalendarData, planID, dateKey string) CalendarData {
	i := indexOf(c.ScheduledWorkouts[dateKey], planID)
	if i < 0 {
		return c
	}
	out := c.Clone()
	ids := out.ScheduledWorkouts[dateKey]
	ids = append(ids[:i], ids[i+1:]...)
	if len(ids) == 0 {
		delete(out.ScheduledWorkouts, dateKey)
	} else {
		out.ScheduledWorkouts[dateKey] = ids
	}
	return out
}

// UpsertPlan returns a calendar with plan added, or replacing the plan with the same ID
// in place. Schedule references are untouched.
func UpsertPlan(c CalendarData, plan WorkoutPlan) CalendarData {
	out := c.Clone()
	for i, p := range out.Plans {
		if p.ID == plan.ID {
			out.Plans[i] = plan.Clone()
			return out
		}
	}
	out.Plans = append(out.Plans, plan.Clone())
	return out
}

// DeletePlan returns a calendar without the plan and without any schedule
// references to it.
func DeletePlan(c CalendarData, planID string) CalendarData {
	out := c.Clone()
	plans := out.Plans[:0]
	for _, p := range out.Plans {
		if p.ID != planID {
			plans = append(plans, p)
		}
	}
	out.Plans = plans
	for date, ids := range out.ScheduledWorkouts {
		kept := ids[:0]
		for _, id := range ids {
			if id != planID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(out.ScheduledWorkouts, date)
		} else {
			out.ScheduledWorkouts[date] = kept
		}
	}
	return out
}

// Normalize returns a calendar with nil collections replaced by empty ones, empty
// dates removed and duplicate plan IDs on the same date collapsed (first occurrence
// wins). Dangling references are kept.
func Normalize(c CalendarData) CalendarData {
	out := c.Clone()
	for date, ids := range out.ScheduledWorkouts {
		seen := make(map[string]struct{}, len(ids))
		kept := ids[:0]
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			kept = append(kept, id)
		}
		if len(kept) == 0 {
			delete(out.ScheduledWorkouts, date)
		} else {
			out.ScheduledWorkouts[date] = kept
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
