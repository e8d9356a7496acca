package cache

import (
	"testing"
	"time"

	"alcyxob/workout-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarCache(t *testing.T) {
	c := NewCalendarCache(1, time.Minute)

	_, ok := c.Get("u1")
	assert.False(t, ok)

	cal := domain.UpsertPlan(domain.NewCalendarData(), domain.WorkoutPlan{ID: "p1", Name: "Push", Color: "red", Exercises: []string{"e1"}})
	cal = domain.AddPlanToDate(cal, "p1", "2024-06-01")
	c.Set("u1", cal)

	got, ok := c.Get("u1")
	require.True(t, ok)
	assert.Equal(t, cal, got)

	_, ok = c.Get("u2")
	assert.False(t, ok)

	c.Invalidate("u1")
	_, ok = c.Get("u1")
	assert.False(t, ok)
}

func TestCalendarCache_GetReturnsCopy(t *testing.T) {
	c := NewCalendarCache(1, time.Minute)
	cal := domain.UpsertPlan(domain.NewCalendarData(), domain.WorkoutPlan{ID: "p1", Name: "Push"})
	c.Set("u1", domain.AddPlanToDate(cal, "p1", "2024-06-01"))

	first, ok := c.Get("u1")
	require.True(t, ok)
	first.ScheduledWorkouts["2024-06-01"][0] = "changed"

	second, ok := c.Get("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"p1"}, second.ScheduledWorkouts["2024-06-01"])
}

func TestCalendarCache_SetIfCurrent(t *testing.T) {
	c := NewCalendarCache(1, time.Minute)
	stale := domain.UpsertPlan(domain.NewCalendarData(), domain.WorkoutPlan{ID: "p1", Name: "Push"})

	// a load starts, then a write invalidates before the load caches its result
	gen := c.Generation("u1")
	c.Invalidate("u1")
	assert.False(t, c.SetIfCurrent("u1", gen, stale))
	_, ok := c.Get("u1")
	assert.False(t, ok, "a load older than the invalidation must not be cached")

	gen = c.Generation("u1")
	assert.True(t, c.SetIfCurrent("u1", gen, stale))
	_, ok = c.Get("u1")
	assert.True(t, ok)

	// other users are unaffected
	other := c.Generation("u2")
	c.Invalidate("u1")
	assert.True(t, c.SetIfCurrent("u2", other, stale))
}
