package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetEntry is one performed set.
type SetEntry struct {
	Weight float64 `bson:"weight" json:"weight"` // In the user's weight unit
	Reps   int     `bson:"reps" json:"reps"`
}

// LoggedExercise groups the sets done for one exercise during a session.
type LoggedExercise struct {
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets       []SetEntry         `bson:"sets" json:"sets"`
}

// WorkoutLog is a completed workout session.
type WorkoutLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Date      string             `bson:"date" json:"date"`                         // Schedule key of the day it was done
	PlanID    string             `bson:"planId,omitempty" json:"planId,omitempty"` // Plan followed, if any
	Entries   []LoggedExercise   `bson:"entries" json:"entries"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetsFor returns every set logged for exerciseID in the given logs.
func SetsFor(logs []WorkoutLog, exerciseID primitive.ObjectID) []SetEntry {
	var sets []SetEntry
	for _, l := range logs {
		for _, e := range l.Entries {
			if e.ExerciseID == exerciseID {
				sets = append(sets, e.Sets...)
			}
		}
	}
	return sets
}
