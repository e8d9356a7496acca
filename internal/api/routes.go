package api

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services and infrastructure the routes are built on.
// RateLimiter may be nil, which disables login rate limiting.
type Dependencies struct {
	AuthService        service.AuthService
	UserService        service.UserService
	CalendarService    service.CalendarService
	ExerciseService    service.ExerciseService
	WorkoutLogService  service.WorkoutLogService
	MeasurementService service.MeasurementService

	Metrics         *metrics.Manager
	MetricsGatherer prometheus.Gatherer
	RateLimiter     RequestRateLimiter
	LoginPerMinute  int
	Sensors         calendar.Sensors
	Heartbeat       time.Duration
	// Shutdown is closed when the server stops; open event streams end then.
	Shutdown <-chan struct{}
}

func SetupRoutes(router *gin.Engine, jwtSecret string, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	calendarHandler := NewCalendarHandler(deps.CalendarService, deps.Metrics, deps.Sensors, deps.Heartbeat, deps.Shutdown)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService, deps.WorkoutLogService)
	workoutHandler := NewWorkoutHandler(deps.WorkoutLogService)
	measurementHandler := NewMeasurementHandler(deps.MeasurementService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(RequestLogger(deps.Metrics))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.MetricsGatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", RateLimit(deps.RateLimiter, deps.Metrics, deps.LoginPerMinute), authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		meGroup := protected.Group("/me")
		{
			meGroup.GET("", userHandler.GetMe)
			meGroup.GET("/settings", userHandler.GetSettings)
			meGroup.PUT("/settings", userHandler.UpdateSettings)
			meGroup.GET("/theme", userHandler.GetTheme)
		}

		// --- Calendar Routes ---
		calendarGroup := protected.Group("/calendar")
		{
			calendarGroup.GET("", calendarHandler.GetCalendar)
			calendarGroup.PUT("", calendarHandler.ReplaceCalendar)
			calendarGroup.GET("/days/:date", calendarHandler.GetDay)
			calendarGroup.GET("/sensors", calendarHandler.GetSensors)
			calendarGroup.GET("/events", calendarHandler.Events)

			calendarGroup.POST("/plans", calendarHandler.CreatePlan)
			calendarGroup.PUT("/plans/:planId", calendarHandler.UpdatePlan)
			calendarGroup.DELETE("/plans/:planId", calendarHandler.DeletePlan)

			calendarGroup.POST("/schedule", calendarHandler.SchedulePlan)
			calendarGroup.DELETE("/schedule/:date/:planId", calendarHandler.UnschedulePlan)
		}

		// --- Exercise Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.GetExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
			exerciseGroup.GET("/:id/records", exerciseHandler.GetRecords)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.LogWorkout)
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
		}

		measurementGroup := protected.Group("/measurements")
		{
			measurementGroup.POST("", measurementHandler.CreateMeasurement)
			measurementGroup.GET("", measurementHandler.ListMeasurements)
			measurementGroup.DELETE("/:id", measurementHandler.DeleteMeasurement)
			measurementGroup.POST("/:id/photo", measurementHandler.RequestPhotoUpload)
			measurementGroup.POST("/:id/photo/confirm", measurementHandler.ConfirmPhotoUpload)
			measurementGroup.GET("/:id/photo", measurementHandler.GetPhotoURL)
		}
	}
}
