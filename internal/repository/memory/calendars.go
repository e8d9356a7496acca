package memory

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalendarRepository mirrors the atomic per-date updates of the Mongo repository.
type CalendarRepository struct {
	mu        sync.Mutex
	calendars map[primitive.ObjectID]domain.CalendarDocument
	// FailNext makes the next write return this error, then resets.
	FailNext error
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{calendars: map[primitive.ObjectID]domain.CalendarDocument{}}
}

var _ repository.CalendarRepository = (*CalendarRepository)(nil)

func (r *CalendarRepository) failure() error {
	err := r.FailNext
	r.FailNext = nil
	return err
}

func (r *CalendarRepository) Get(_ context.Context, userID primitive.ObjectID) (*domain.CalendarDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.calendars[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	doc.CalendarData = doc.CalendarData.Clone()
	return &doc, nil
}

func (r *CalendarRepository) Replace(_ context.Context, userID primitive.ObjectID, cal domain.CalendarData) error {
	if userID == primitive.NilObjectID {
		return errors.New("calendar requires a user ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	r.calendars[userID] = domain.CalendarDocument{
		UserID:       userID,
		CalendarData: domain.Normalize(cal),
		UpdatedAt:    time.Now().UTC(),
	}
	return nil
}

func (r *CalendarRepository) AddToDate(_ context.Context, userID primitive.ObjectID, planID, dateKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	doc, ok := r.calendars[userID]
	if !ok || !doc.HasPlan(planID) {
		return repository.ErrNotFound
	}
	doc.CalendarData = domain.AddPlanToDate(doc.CalendarData, planID, dateKey)
	doc.UpdatedAt = time.Now().UTC()
	r.calendars[userID] = doc
	return nil
}

func (r *CalendarRepository) RemoveFromDate(_ context.Context, userID primitive.ObjectID, planID, dateKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	doc, ok := r.calendars[userID]
	if !ok {
		return repository.ErrNotFound
	}
	doc.CalendarData = domain.RemovePlanFromDate(doc.CalendarData, planID, dateKey)
	doc.UpdatedAt = time.Now().UTC()
	r.calendars[userID] = doc
	return nil
}

func (r *CalendarRepository) UpsertPlan(_ context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) error {
	if userID == primitive.NilObjectID {
		return errors.New("calendar requires a user ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	doc, ok := r.calendars[userID]
	if !ok {
		doc = domain.CalendarDocument{UserID: userID, CalendarData: domain.NewCalendarData()}
	}
	doc.CalendarData = domain.UpsertPlan(doc.CalendarData, plan)
	doc.UpdatedAt = time.Now().UTC()
	r.calendars[userID] = doc
	return nil
}

func (r *CalendarRepository) DeletePlan(_ context.Context, userID primitive.ObjectID, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	doc, ok := r.calendars[userID]
	if !ok || !doc.HasPlan(planID) {
		return repository.ErrNotFound
	}
	doc.CalendarData = domain.DeletePlan(doc.CalendarData, planID)
	doc.UpdatedAt = time.Now().UTC()
	r.calendars[userID] = doc
	return nil
}
