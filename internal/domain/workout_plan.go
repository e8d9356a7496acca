// internal/domain/workout_plan.go
package domain

// WorkoutPlan is a named, reusable template of exercises that can be scheduled
// on calendar days. Its ID never changes once the plan is referenced by the schedule.
type WorkoutPlan struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	// e.g. "green", "#4caf50"
	Color string `bson:"color" json:"color"`
	// Ordered exercise IDs
	Exercises []string `bson:"exercises" json:"exercises"`
	// Minutes, optional
	Duration *int `bson:"duration,omitempty" json:"duration,omitempty"`
}

// Clone returns a deep copy of the plan.
func (p WorkoutPlan) Clone() WorkoutPlan {
	out := p
	if p.Exercises != nil {
		out.Exercises = append([]string(nil), p.Exercises...)
	}
	if p.Duration != nil {
		d := *p.Duration
		out.Duration = &d
	}
	return out
}
