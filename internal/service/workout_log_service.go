package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrWorkoutLogNotFound = errors.New("workout log not found")
	ErrInvalidWorkoutLog  = errors.New("invalid workout log")
)

// WorkoutLogInput is a completed session as reported by the user.
type WorkoutLogInput struct {
	Date    string
	PlanID  string
	Entries []domain.LoggedExercise
	Notes   string
}

// ExerciseRecords summarizes the history of one exercise.
type ExerciseRecords struct {
	Exercise *domain.Exercise      `json:"exercise"`
	Record   *domain.PersonalRecord `json:"record,omitempty"`
	Sessions int                   `json:"sessions"`
}

type WorkoutLogService interface {
	LogWorkout(ctx context.Context, userID primitive.ObjectID, input WorkoutLogInput) (*domain.WorkoutLog, error)
	GetWorkout(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, error)
	ListWorkouts(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.WorkoutLog, error)
	DeleteWorkout(ctx context.Context, userID, logID primitive.ObjectID) error
	// Records estimates the user's one-rep max for an exercise from every logged set.
	Records(ctx context.Context, userID, exerciseID primitive.ObjectID, formula domain.OneRMFormula) (*ExerciseRecords, error)
}

type workoutLogService struct {
	logRepo         repository.WorkoutLogRepository
	exerciseService ExerciseService
}

func NewWorkoutLogService(logRepo repository.WorkoutLogRepository, exerciseService ExerciseService) WorkoutLogService {
	return &workoutLogService{
		logRepo:         logRepo,
		exerciseService: exerciseService,
	}
}

func (s *workoutLogService) LogWorkout(ctx context.Context, userID primitive.ObjectID, input WorkoutLogInput) (*domain.WorkoutLog, error) {
	if !domain.ValidDateKey(input.Date) {
		return nil, ErrInvalidDate
	}
	if len(input.Entries) == 0 {
		return nil, fmt.Errorf("%w: at least one exercise is required", ErrInvalidWorkoutLog)
	}
	for _, entry := range input.Entries {
		if _, err := s.exerciseService.GetExercise(ctx, userID, entry.ExerciseID); err != nil {
			return nil, err
		}
		for _, set := range entry.Sets {
			if set.Weight < 0 || set.Reps < 0 {
				return nil, fmt.Errorf("%w: weight and reps cannot be negative", ErrInvalidWorkoutLog)
			}
		}
	}

	log := &domain.WorkoutLog{
		UserID:  userID,
		Date:    input.Date,
		PlanID:  input.PlanID,
		Entries: input.Entries,
		Notes:   input.Notes,
	}
	id, err := s.logRepo.Create(ctx, log)
	if err != nil {
		return nil, err
	}
	log.ID = id
	return log, nil
}

func (s *workoutLogService) GetWorkout(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, error) {
	log, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutLogNotFound
		}
		return nil, err
	}
	// foreign logs are reported as missing
	if log.UserID != userID {
		return nil, ErrWorkoutLogNotFound
	}
	return log, nil
}

func (s *workoutLogService) ListWorkouts(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.WorkoutLog, error) {
	for _, d := range []string{from, to} {
		if d != "" && !domain.ValidDateKey(d) {
			return nil, ErrInvalidDate
		}
	}
	return s.logRepo.ListByUser(ctx, userID, from, to)
}

func (s *workoutLogService) DeleteWorkout(ctx context.Context, userID, logID primitive.ObjectID) error {
	if err := s.logRepo.Delete(ctx, logID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutLogNotFound
		}
		return err
	}
	return nil
}

func (s *workoutLogService) Records(ctx context.Context, userID, exerciseID primitive.ObjectID, formula domain.OneRMFormula) (*ExerciseRecords, error) {
	exercise, err := s.exerciseService.GetExercise(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListByExercise(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}

	out := &ExerciseRecords{Exercise: exercise, Sessions: len(logs)}
	if pr, ok := domain.BestEstimate(formula, domain.SetsFor(logs, exerciseID)); ok {
		out.Record = &pr
	}
	return out, nil
}
