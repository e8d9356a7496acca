package api

import (
	"alcyxob/workout-tracker/internal/cache"
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/notify"
	"alcyxob/workout-tracker/internal/repository/memory"
	"alcyxob/workout-tracker/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	router      *gin.Engine
	metrics     *metrics.Manager
	registry    *prometheus.Registry
	auth        service.AuthService
	calendar    service.CalendarService
	rateLimiter *testRequestRateLimiter
	shutdown    chan struct{}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metricsManager, reg := metrics.NewTestManagerAndRegistry()
	userRepo := memory.NewUserRepository()
	authService := service.NewAuthService(userRepo, testJWTSecret, time.Hour)
	calendarService := service.NewCalendarService(
		memory.NewCalendarRepository(),
		cache.NewCalendarCache(1, time.Minute),
		notify.NewHub(),
		metricsManager,
	)
	exerciseService := service.NewExerciseService(memory.NewExerciseRepository())
	workoutLogService := service.NewWorkoutLogService(memory.NewWorkoutLogRepository(), exerciseService)
	limiter := &testRequestRateLimiter{Limits: map[string]int{}}
	shutdown := make(chan struct{})

	router := gin.New()
	SetupRoutes(router, testJWTSecret, Dependencies{
		AuthService:        authService,
		UserService:        service.NewUserService(userRepo),
		CalendarService:    calendarService,
		ExerciseService:    exerciseService,
		WorkoutLogService:  workoutLogService,
		MeasurementService: service.NewMeasurementService(memory.NewMeasurementRepository(), memory.NewPhotoRepository(), nil, 0),
		Metrics:            metricsManager,
		MetricsGatherer:    reg,
		RateLimiter:        limiter,
		LoginPerMinute:     3,
		Sensors:            calendar.DefaultSensors(),
		Shutdown:           shutdown,
	})

	return &testEnv{
		router:      router,
		metrics:     metricsManager,
		registry:    reg,
		auth:        authService,
		calendar:    calendarService,
		rateLimiter: limiter,
		shutdown:    shutdown,
	}
}

// login registers a fresh user and returns its token and id.
func (e *testEnv) login(t *testing.T) (token, userID string) {
	t.Helper()
	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)
	_, err := e.auth.Register(context.Background(), gofakeit.Name(), email, password)
	require.NoError(t, err)
	token, user, err := e.auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	return token, user.ID.Hex()
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// testRequestRateLimiter allows Limit.Rate requests per key, then refuses.
type testRequestRateLimiter struct {
	mu sync.Mutex
	// key to allowed count
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Allowed:    0,
		Remaining:  0,
		RetryAfter: 30 * time.Second,
		ResetAfter: time.Minute,
	}
	if l.Limits[key] >= limit.Rate {
		return res, nil
	}
	l.Limits[key]++
	res.Allowed = 1
	res.Remaining = limit.Rate - l.Limits[key]
	res.RetryAfter = -1
	return res, nil
}
