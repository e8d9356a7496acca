package repository

import (
	"alcyxob/workout-tracker/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateSettings(ctx context.Context, id primitive.ObjectID, settings domain.Settings) error
}

// CalendarRepository stores one calendar document per user.
type CalendarRepository interface {
	// Get returns ErrNotFound when the user never saved a calendar.
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.CalendarDocument, error)
	// Replace overwrites the whole calendar, creating it if needed.
	Replace(ctx context.Context, userID primitive.ObjectID, cal domain.CalendarData) error
	// AddToDate appends planID to dateKey unless already there. It returns
	// ErrNotFound when the user has no calendar or planID names no plan.
	AddToDate(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) error
	// RemoveFromDate removes planID from dateKey and drops the date when it empties.
	RemoveFromDate(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) error
	// UpsertPlan replaces the plan with the same ID in place, or appends it,
	// creating the calendar if needed. The schedule is left untouched.
	UpsertPlan(ctx context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) error
	// DeletePlan removes the plan and every schedule reference to it in one
	// update. It returns ErrNotFound when the plan does not exist.
	DeletePlan(ctx context.Context, userID primitive.ObjectID, planID string) error
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error // Ensure the user owns the exercise
}

// WorkoutLogRepository stores completed workout sessions.
type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	// ListByUser returns logs with from <= date <= to; empty bounds are open.
	ListByUser(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.WorkoutLog, error)
	ListByExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) ([]domain.WorkoutLog, error)
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
}

// MeasurementRepository stores body measurements.
type MeasurementRepository interface {
	Create(ctx context.Context, m *domain.BodyMeasurement) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.BodyMeasurement, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.BodyMeasurement, error)
	SetPhoto(ctx context.Context, id, photoID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
}

// PhotoRepository stores progress photo metadata.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.Photo) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Photo, error)
	GetByMeasurementID(ctx context.Context, measurementID primitive.ObjectID) (*domain.Photo, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
