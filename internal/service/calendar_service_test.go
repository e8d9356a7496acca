package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedPlans(t *testing.T, f *calendarFixture, userID primitive.ObjectID, ids ...string) {
	t.Helper()
	cal := domain.NewCalendarData()
	for _, id := range ids {
		cal = domain.UpsertPlan(cal, domain.WorkoutPlan{ID: id, Name: "Plan " + id, Color: "green", Exercises: []string{}})
	}
	require.NoError(t, f.repo.Replace(context.Background(), userID, cal))
}

func expectNotified(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a calendar invalidation")
	}
}

func expectQuiet(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected calendar invalidation")
	default:
	}
}

func TestCalendarService_GetCalendar_EmptyForNewUser(t *testing.T) {
	f := newCalendarFixture()

	cal, err := f.svc.GetCalendar(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, cal.Plans)
	assert.NotNil(t, cal.ScheduledWorkouts)
	assert.Empty(t, cal.ScheduledWorkouts)
}

func TestCalendarService_GetCalendar_UsesCache(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	_, err := f.svc.GetCalendar(ctx, userID)
	require.NoError(t, err)
	_, err = f.svc.GetCalendar(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCacheLookups.WithLabelValues("hit")))
}

func TestCalendarService_SchedulePlan(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1", "p2")

	events, cancel, err := f.svc.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer cancel()

	// warm the cache so the write has to invalidate it
	_, err = f.svc.GetCalendar(ctx, userID)
	require.NoError(t, err)

	cal, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, cal.ScheduledWorkouts["2024-06-03"])
	expectNotified(t, events)

	cal, err = f.svc.SchedulePlan(ctx, userID, "p2", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, cal.ScheduledWorkouts["2024-06-03"])
	expectNotified(t, events)

	got, err := f.svc.GetCalendar(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cal, got)
}

func TestCalendarService_SchedulePlan_Idempotent(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	_, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)

	events, cancel, err := f.svc.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer cancel()

	cal, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, cal.ScheduledWorkouts["2024-06-03"])
	expectQuiet(t, events)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCalendarMutations.WithLabelValues("schedule", "noop")))
}

func TestCalendarService_SchedulePlan_UnknownPlanIsNoop(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	cal, err := f.svc.SchedulePlan(ctx, userID, "ghost", "2024-06-03")
	require.NoError(t, err)
	assert.Empty(t, cal.ScheduledWorkouts)
}

func TestCalendarService_SchedulePlan_InvalidDate(t *testing.T) {
	f := newCalendarFixture()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	for _, date := range []string{"", "2024-6-3", "2024-02-30", "day-2024-06-03"} {
		_, err := f.svc.SchedulePlan(context.Background(), userID, "p1", date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}
}

func TestCalendarService_SchedulePlan_StoreFailure(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")
	f.repo.FailNext = errors.New("write conflict")

	_, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	assert.EqualError(t, err, "write conflict")

	cal, err := f.svc.GetCalendar(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cal.ScheduledWorkouts)
}

func TestCalendarService_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newCalendarFixture()
	svc := NewCalendarService(f.repo, f.cache, &failingNotifier{f.hub}, f.metrics)
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	cal, err := svc.SchedulePlan(context.Background(), userID, "p1", "2024-06-03")
	require.NoError(t, err)
	assert.True(t, cal.IsScheduled("p1", "2024-06-03"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterNotifications.WithLabelValues("error")))
}

func TestCalendarService_UnschedulePlan(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1", "p2")

	_, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)
	_, err = f.svc.SchedulePlan(ctx, userID, "p2", "2024-06-03")
	require.NoError(t, err)

	cal, err := f.svc.UnschedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, cal.ScheduledWorkouts["2024-06-03"])

	cal, err = f.svc.UnschedulePlan(ctx, userID, "p2", "2024-06-03")
	require.NoError(t, err)
	_, present := cal.ScheduledWorkouts["2024-06-03"]
	assert.False(t, present, "empty dates are dropped")

	// removing again is a no-op
	cal, err = f.svc.UnschedulePlan(ctx, userID, "p2", "2024-06-03")
	require.NoError(t, err)
	assert.Empty(t, cal.ScheduledWorkouts)
}

func TestCalendarService_SavePlan(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, cal, err := f.svc.SavePlan(ctx, userID, domain.WorkoutPlan{Name: "Legs", Color: "blue"})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.NotNil(t, plan.Exercises)
	require.Len(t, cal.Plans, 1)

	plan.Name = "Leg day"
	_, cal, err = f.svc.SavePlan(ctx, userID, plan)
	require.NoError(t, err)
	require.Len(t, cal.Plans, 1)
	assert.Equal(t, "Leg day", cal.Plans[0].Name)

	_, _, err = f.svc.SavePlan(ctx, userID, domain.WorkoutPlan{ID: "x"})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCalendarService_DeletePlanRemovesReferences(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1", "p2")
	_, err := f.svc.SchedulePlan(ctx, userID, "p1", "2024-06-03")
	require.NoError(t, err)
	_, err = f.svc.SchedulePlan(ctx, userID, "p2", "2024-06-04")
	require.NoError(t, err)

	cal, err := f.svc.DeletePlan(ctx, userID, "p1")
	require.NoError(t, err)
	assert.False(t, cal.HasPlan("p1"))
	assert.Equal(t, map[string][]string{"2024-06-04": {"p2"}}, cal.ScheduledWorkouts)

	_, err = f.svc.DeletePlan(ctx, userID, "p1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCalendarService_ReplaceCalendar(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	in := domain.CalendarData{
		Plans: []domain.WorkoutPlan{{ID: "p1", Name: "Push"}},
		ScheduledWorkouts: map[string][]string{
			"2024-06-01": {"p1", "p1"},
			"2024-06-02": {"gone"},
			"2024-06-05": {},
		},
	}
	out, err := f.svc.ReplaceCalendar(ctx, userID, in)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"2024-06-01": {"p1"},
		"2024-06-02": {"gone"},
	}, out.ScheduledWorkouts)
	assert.Empty(t, out.PlansOn("2024-06-02"))

	_, err = f.svc.ReplaceCalendar(ctx, userID, domain.CalendarData{
		ScheduledWorkouts: map[string][]string{"June 1st": {"p1"}},
	})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.ReplaceCalendar(ctx, userID, domain.CalendarData{
		Plans: []domain.WorkoutPlan{{ID: "p1", Name: "A"}, {ID: "p1", Name: "B"}},
	})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCalendarService_ReadRacingWriteIsNotCached(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1")

	repo := newStallingCalendarRepo(f.repo)
	svc := NewCalendarService(repo, f.cache, f.hub, f.metrics)

	// a cache miss reads the calendar, then stalls before caching it
	repo.stallGet.Store(true)
	staleRead := make(chan domain.CalendarData, 1)
	go func() {
		cal, err := svc.GetCalendar(ctx, userID)
		assert.NoError(t, err)
		staleRead <- cal
	}()
	<-repo.entered

	_, err := svc.SchedulePlan(ctx, userID, "p1", "2024-06-01")
	require.NoError(t, err)

	close(repo.release)
	assert.Empty(t, (<-staleRead).ScheduledWorkouts, "the stalled read saw the calendar before the write")

	cal, err := svc.GetCalendar(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-06-01": {"p1"}}, cal.ScheduledWorkouts)

	cached, ok := f.cache.Get(userID.Hex())
	require.True(t, ok)
	assert.True(t, cached.IsScheduled("p1", "2024-06-01"))
}

func TestCalendarService_PlanEditKeepsConcurrentSchedule(t *testing.T) {
	f := newCalendarFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	seedPlans(t, f, userID, "p1", "p2")

	repo := newStallingCalendarRepo(f.repo)
	svc := NewCalendarService(repo, f.cache, f.hub, f.metrics)

	repo.stallUpsert.Store(true)
	saved := make(chan error, 1)
	go func() {
		_, _, err := svc.SavePlan(ctx, userID, domain.WorkoutPlan{ID: "p1", Name: "Push v2", Color: "red"})
		saved <- err
	}()
	<-repo.entered

	// acknowledged while the plan edit is in flight
	_, err := svc.SchedulePlan(ctx, userID, "p1", "2024-06-01")
	require.NoError(t, err)

	close(repo.release)
	require.NoError(t, <-saved)

	doc, err := f.repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-06-01": {"p1"}}, doc.ScheduledWorkouts)
	plan, ok := doc.PlanByID("p1")
	require.True(t, ok)
	assert.Equal(t, "Push v2", plan.Name)

	// deleting another plan leaves the schedule of p1 alone
	cal, err := svc.DeletePlan(ctx, userID, "p2")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-06-01": {"p1"}}, cal.ScheduledWorkouts)
}
