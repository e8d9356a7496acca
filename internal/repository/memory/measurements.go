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

type measurementRepo struct {
	mu           sync.RWMutex
	measurements map[primitive.ObjectID]domain.BodyMeasurement
}

func NewMeasurementRepository() repository.MeasurementRepository {
	return &measurementRepo{measurements: map[primitive.ObjectID]domain.BodyMeasurement{}}
}

func (r *measurementRepo) Create(_ context.Context, m *domain.BodyMeasurement) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	r.measurements[m.ID] = *m
	return m.ID, nil
}

func (r *measurementRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.BodyMeasurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.measurements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *measurementRepo) ListByUser(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.BodyMeasurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.BodyMeasurement{}
	for _, m := range r.measurements {
		if m.UserID == userID && inRange(m.Date, from, to) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *measurementRepo) SetPhoto(_ context.Context, id, photoID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.measurements[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.PhotoID = &photoID
	m.UpdatedAt = time.Now().UTC()
	r.measurements[id] = m
	return nil
}

func (r *measurementRepo) Delete(_ context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.measurements[id]
	if !ok || m.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.measurements, id)
	return nil
}

type photoRepo struct {
	mu     sync.RWMutex
	photos map[primitive.ObjectID]domain.Photo
}

func NewPhotoRepository() repository.PhotoRepository {
	return &photoRepo{photos: map[primitive.ObjectID]domain.Photo{}}
}

func (r *photoRepo) Create(_ context.Context, photo *domain.Photo) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.photos {
		if p.MeasurementID == photo.MeasurementID || p.S3ObjectKey == photo.S3ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	photo.ID = primitive.NewObjectID()
	photo.UploadedAt = time.Now().UTC()
	r.photos[photo.ID] = *photo
	return photo.ID, nil
}

func (r *photoRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.photos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *photoRepo) GetByMeasurementID(_ context.Context, measurementID primitive.ObjectID) (*domain.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.photos {
		if p.MeasurementID == measurementID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *photoRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.photos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.photos, id)
	return nil
}
