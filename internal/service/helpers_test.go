package service

import (
	"alcyxob/workout-tracker/internal/cache"
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/notify"
	"alcyxob/workout-tracker/internal/repository/memory"
	"alcyxob/workout-tracker/internal/storage"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type calendarFixture struct {
	repo    *memory.CalendarRepository
	cache   *cache.CalendarCache
	hub     *notify.Hub
	metrics *metrics.Manager
	svc     CalendarService
}

func newCalendarFixture() *calendarFixture {
	f := &calendarFixture{
		repo:    memory.NewCalendarRepository(),
		cache:   cache.NewCalendarCache(1, time.Minute),
		hub:     notify.NewHub(),
		metrics: metrics.NewTestManager(),
	}
	f.svc = NewCalendarService(f.repo, f.cache, f.hub, f.metrics)
	return f
}

// stallingCalendarRepo holds the next armed call until release is closed,
// letting a test run a competing write in between. Get stalls after reading,
// UpsertPlan before writing.
type stallingCalendarRepo struct {
	*memory.CalendarRepository
	stallGet    atomic.Bool
	stallUpsert atomic.Bool
	entered     chan struct{}
	release     chan struct{}
}

func newStallingCalendarRepo(repo *memory.CalendarRepository) *stallingCalendarRepo {
	return &stallingCalendarRepo{
		CalendarRepository: repo,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (r *stallingCalendarRepo) Get(ctx context.Context, userID primitive.ObjectID) (*domain.CalendarDocument, error) {
	doc, err := r.CalendarRepository.Get(ctx, userID)
	if r.stallGet.CompareAndSwap(true, false) {
		close(r.entered)
		<-r.release
	}
	return doc, err
}

func (r *stallingCalendarRepo) UpsertPlan(ctx context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) error {
	if r.stallUpsert.CompareAndSwap(true, false) {
		close(r.entered)
		<-r.release
	}
	return r.CalendarRepository.UpsertPlan(ctx, userID, plan)
}

// failingNotifier always fails to publish.
type failingNotifier struct{ *notify.Hub }

func (n *failingNotifier) Publish(context.Context, string) error {
	return errors.New("redis down")
}

type storedObject struct {
	contentType string
	size        int64
}

// fakeStorage keeps objects in memory; tests "upload" with put.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]storedObject
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storedObject{}}
}

func (s *fakeStorage) put(key, contentType string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{contentType: contentType, size: size}
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, contentType string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey + "?type=" + contentType, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeStorage) StatObject(_ context.Context, objectKey string) (*storage.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[objectKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectMetadata{Size: o.size, ContentType: o.contentType}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}
