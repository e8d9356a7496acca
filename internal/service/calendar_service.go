package service

import (
	"alcyxob/workout-tracker/internal/cache"
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/notify"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidDate  = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidPlan  = errors.New("invalid workout plan")
	ErrPlanNotFound = errors.New("workout plan not found")
)

// CalendarService owns the per-user calendar: plans and the plans scheduled on each day.
// Every successful write invalidates the cached copy and notifies the user's devices.
type CalendarService interface {
	GetCalendar(ctx context.Context, userID primitive.ObjectID) (domain.CalendarData, error)
	ReplaceCalendar(ctx context.Context, userID primitive.ObjectID, cal domain.CalendarData) (domain.CalendarData, error)
	// SavePlan creates the plan, or replaces the plan with the same ID. A plan without
	// an ID gets a new one.
	SavePlan(ctx context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) (domain.WorkoutPlan, domain.CalendarData, error)
	DeletePlan(ctx context.Context, userID primitive.ObjectID, planID string) (domain.CalendarData, error)
	// SchedulePlan adds planID to the day at most once. Unknown plans are ignored.
	SchedulePlan(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) (domain.CalendarData, error)
	UnschedulePlan(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) (domain.CalendarData, error)
	Subscribe(ctx context.Context, userID primitive.ObjectID) (<-chan struct{}, func(), error)
}

type calendarService struct {
	calendarRepo repository.CalendarRepository
	cache        *cache.CalendarCache
	notifier     notify.Notifier
	metrics      *metrics.Manager
}

func NewCalendarService(
	calendarRepo repository.CalendarRepository,
	calendarCache *cache.CalendarCache,
	notifier notify.Notifier,
	metricsManager *metrics.Manager,
) CalendarService {
	return &calendarService{
		calendarRepo: calendarRepo,
		cache:        calendarCache,
		notifier:     notifier,
		metrics:      metricsManager,
	}
}

func (s *calendarService) GetCalendar(ctx context.Context, userID primitive.ObjectID) (domain.CalendarData, error) {
	if cal, ok := s.cache.Get(userID.Hex()); ok {
		s.metrics.CounterCacheLookups.WithLabelValues("hit").Inc()
		return cal, nil
	}
	s.metrics.CounterCacheLookups.WithLabelValues("miss").Inc()
	return s.load(ctx, userID)
}

// load reads the stored calendar, bypassing the cache. A user who never saved
// anything has an empty calendar.
func (s *calendarService) load(ctx context.Context, userID primitive.ObjectID) (domain.CalendarData, error) {
	// taken before the read: a write landing in between makes the result uncachable
	generation := s.cache.Generation(userID.Hex())
	doc, err := s.calendarRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewCalendarData(), nil
		}
		return domain.CalendarData{}, err
	}
	s.cache.SetIfCurrent(userID.Hex(), generation, doc.CalendarData)
	return doc.CalendarData, nil
}

func validatePlan(plan domain.WorkoutPlan) error {
	if strings.TrimSpace(plan.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidPlan)
	}
	if strings.TrimSpace(plan.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if plan.Duration != nil && *plan.Duration < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidPlan)
	}
	return nil
}

func validateCalendar(cal domain.CalendarData) error {
	seen := make(map[string]struct{}, len(cal.Plans))
	for _, p := range cal.Plans {
		if err := validatePlan(p); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate plan id %q", ErrInvalidPlan, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for date := range cal.ScheduledWorkouts {
		if !domain.ValidDateKey(date) {
			return fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}
	return nil
}

// ReplaceCalendar stores a whole calendar. Dangling schedule references are kept;
// readers skip them.
func (s *calendarService) ReplaceCalendar(ctx context.Context, userID primitive.ObjectID, cal domain.CalendarData) (domain.CalendarData, error) {
	cal = domain.Normalize(cal)
	if err := validateCalendar(cal); err != nil {
		return domain.CalendarData{}, err
	}
	if err := s.replace(ctx, userID, "replace", cal); err != nil {
		return domain.CalendarData{}, err
	}
	return cal, nil
}

func (s *calendarService) SavePlan(ctx context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) (domain.WorkoutPlan, domain.CalendarData, error) {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Exercises == nil {
		plan.Exercises = []string{}
	}
	if err := validatePlan(plan); err != nil {
		return domain.WorkoutPlan{}, domain.CalendarData{}, err
	}

	if err := s.calendarRepo.UpsertPlan(ctx, userID, plan); err != nil {
		s.countMutation("save_plan", "error")
		return domain.WorkoutPlan{}, domain.CalendarData{}, err
	}
	s.countMutation("save_plan", "ok")
	updated, err := s.changed(ctx, userID)
	if err != nil {
		return domain.WorkoutPlan{}, domain.CalendarData{}, err
	}
	return plan, updated, nil
}

// DeletePlan removes the plan and its schedule references in one store update,
// so schedule changes made meanwhile on other days survive.
func (s *calendarService) DeletePlan(ctx context.Context, userID primitive.ObjectID, planID string) (domain.CalendarData, error) {
	err := s.calendarRepo.DeletePlan(ctx, userID, planID)
	if errors.Is(err, repository.ErrNotFound) {
		s.countMutation("delete_plan", "noop")
		return domain.CalendarData{}, ErrPlanNotFound
	}
	if err != nil {
		s.countMutation("delete_plan", "error")
		return domain.CalendarData{}, err
	}
	s.countMutation("delete_plan", "ok")
	return s.changed(ctx, userID)
}

func (s *calendarService) SchedulePlan(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) (domain.CalendarData, error) {
	if !domain.ValidDateKey(dateKey) {
		return domain.CalendarData{}, ErrInvalidDate
	}
	current, err := s.load(ctx, userID)
	if err != nil {
		return domain.CalendarData{}, err
	}
	if !current.HasPlan(planID) || current.IsScheduled(planID, dateKey) {
		s.countMutation("schedule", "noop")
		return current, nil
	}

	err = s.calendarRepo.AddToDate(ctx, userID, planID, dateKey)
	if errors.Is(err, repository.ErrNotFound) {
		// the plan was deleted in between
		s.countMutation("schedule", "noop")
		s.cache.Invalidate(userID.Hex())
		return s.load(ctx, userID)
	}
	if err != nil {
		s.countMutation("schedule", "error")
		return domain.CalendarData{}, err
	}
	s.countMutation("schedule", "ok")
	return s.changed(ctx, userID)
}

func (s *calendarService) UnschedulePlan(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) (domain.CalendarData, error) {
	if !domain.ValidDateKey(dateKey) {
		return domain.CalendarData{}, ErrInvalidDate
	}
	current, err := s.load(ctx, userID)
	if err != nil {
		return domain.CalendarData{}, err
	}
	if !current.IsScheduled(planID, dateKey) {
		s.countMutation("unschedule", "noop")
		return current, nil
	}

	err = s.calendarRepo.RemoveFromDate(ctx, userID, planID, dateKey)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.countMutation("unschedule", "error")
		return domain.CalendarData{}, err
	}
	s.countMutation("unschedule", "ok")
	return s.changed(ctx, userID)
}

func (s *calendarService) Subscribe(ctx context.Context, userID primitive.ObjectID) (<-chan struct{}, func(), error) {
	return s.notifier.Subscribe(ctx, userID.Hex())
}

func (s *calendarService) replace(ctx context.Context, userID primitive.ObjectID, op string, cal domain.CalendarData) error {
	if err := s.calendarRepo.Replace(ctx, userID, cal); err != nil {
		s.countMutation(op, "error")
		return err
	}
	s.countMutation(op, "ok")
	s.cache.Invalidate(userID.Hex())
	s.publish(ctx, userID)
	return nil
}

// changed drops the cached copy, notifies devices and returns the stored calendar.
func (s *calendarService) changed(ctx context.Context, userID primitive.ObjectID) (domain.CalendarData, error) {
	s.cache.Invalidate(userID.Hex())
	s.publish(ctx, userID)
	return s.load(ctx, userID)
}

// publish failures are logged only. Devices catch up on their next fetch.
func (s *calendarService) publish(ctx context.Context, userID primitive.ObjectID) {
	if err := s.notifier.Publish(ctx, userID.Hex()); err != nil {
		s.metrics.CounterNotifications.WithLabelValues("error").Inc()
		log.Errorf("failed to publish calendar change for %s: %s", userID.Hex(), err)
		return
	}
	s.metrics.CounterNotifications.WithLabelValues("ok").Inc()
}

func (s *calendarService) countMutation(op, result string) {
	s.metrics.CounterCalendarMutations.WithLabelValues(op, result).Inc()
}
