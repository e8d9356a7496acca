package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterCalendarMutations.WithLabelValues("schedule", "ok").Inc()
	m.CounterCalendarMutations.WithLabelValues("schedule", "ok").Inc()
	m.CounterLoginRateLimited.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterCalendarMutations.WithLabelValues("schedule", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterLoginRateLimited))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["workout_tracker_test_server_calendar_mutations"])
	assert.True(t, names["workout_tracker_test_server_login_rate_limited"])
}

func TestNewTestManager_IndependentRegistries(t *testing.T) {
	// Registering twice on separate registries must not panic.
	assert.NotPanics(t, func() {
		NewTestManager()
		NewTestManager()
	})
}

func TestSetupPrometheus(t *testing.T) {
	reg := SetupPrometheus()
	NewManager("workout_tracker", "main", reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
	assert.True(t, names["go_build_info"])
}
