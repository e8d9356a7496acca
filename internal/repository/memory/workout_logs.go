package memory

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutLogRepo struct {
	mu   sync.RWMutex
	logs map[primitive.ObjectID]domain.WorkoutLog
}

func NewWorkoutLogRepository() repository.WorkoutLogRepository {
	return &workoutLogRepo{logs: map[primitive.ObjectID]domain.WorkoutLog{}}
}

func (r *workoutLogRepo) Create(_ context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	log.UpdatedAt = log.CreatedAt
	r.logs[log.ID] = *log
	return log.ID, nil
}

func (r *workoutLogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *workoutLogRepo) ListByUser(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.WorkoutLog, error) {
	return r.filter(func(l domain.WorkoutLog) bool {
		return l.UserID == userID && inRange(l.Date, from, to)
	}), nil
}

func (r *workoutLogRepo) ListByExercise(_ context.Context, userID, exerciseID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	return r.filter(func(l domain.WorkoutLog) bool {
		if l.UserID != userID {
			return false
		}
		for _, e := range l.Entries {
			if e.ExerciseID == exerciseID {
				return true
			}
		}
		return false
	}), nil
}

func (r *workoutLogRepo) filter(keep func(domain.WorkoutLog) bool) []domain.WorkoutLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.WorkoutLog{}
	for _, l := range r.logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *workoutLogRepo) Delete(_ context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok || l.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.logs, id)
	return nil
}

// inRange compares schedule keys lexically, which matches date order.
func inRange(date, from, to string) bool {
	return (from == "" || date >= from) && (to == "" || date <= to)
}
