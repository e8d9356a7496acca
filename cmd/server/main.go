package main

import (
	"alcyxob/workout-tracker/internal/api"
	"alcyxob/workout-tracker/internal/cache"
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/config"
	"alcyxob/workout-tracker/internal/logging"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/notify"
	"alcyxob/workout-tracker/internal/repository"
	"alcyxob/workout-tracker/internal/repository/memory"
	"alcyxob/workout-tracker/internal/repository/mongo"
	"alcyxob/workout-tracker/internal/service"
	"alcyxob/workout-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const dbTimeout = 10 * time.Second

type repositories struct {
	users        repository.UserRepository
	calendars    repository.CalendarRepository
	exercises    repository.ExerciseRepository
	workoutLogs  repository.WorkoutLogRepository
	measurements repository.MeasurementRepository
	photos       repository.PhotoRepository
}

// closer releases a resource on shutdown.
type closer struct {
	name  string
	close func() error
}

// @title Workout Tracker API
// @version 1.0
// @description Workout plans, calendar scheduling, workout logs and body measurements.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}
	logging.Setup(cfg.Log)
	log.Info("starting workout tracker server ...")

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret (JWT_SECRET) must be set")
	}

	ctx := context.Background()
	var closers []closer

	// --- Repositories ---
	repos, closeDB, err := openRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("could not open %s database: %s", cfg.Database.Driver, err)
	}
	closers = append(closers, closer{name: "database", close: closeDB})

	// --- Redis: notifications and rate limiting ---
	var notifier notify.Notifier = notify.NewHub()
	var rateLimiter api.RequestRateLimiter
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to ping redis at %s: %s", cfg.Redis.Addr, err)
		}
		notifier = notify.NewRedisNotifier(rdb)
		rateLimiter = redis_rate.NewLimiter(rdb)
		closers = append(closers, closer{name: "redis", close: rdb.Close})
		log.Infof("redis connected: %s", cfg.Redis.Addr)
	} else {
		log.Warn("redis disabled: calendar notifications stay in-process, login rate limiting is off")
	}

	// --- Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %s", err)
		}
	} else {
		log.Warn("s3.bucket_name not set: progress photos are disabled")
	}

	// --- Metrics ---
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager(cfg.Metrics.Namespace, "server", promRegistry)

	// --- Services ---
	shutdown := make(chan struct{})
	calendarCache := cache.NewCalendarCache(cfg.Cache.SizeMB, cfg.Cache.TTL)
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	exerciseService := service.NewExerciseService(repos.exercises)
	deps := api.Dependencies{
		AuthService:        authService,
		UserService:        service.NewUserService(repos.users),
		CalendarService:    service.NewCalendarService(repos.calendars, calendarCache, notifier, metricsManager),
		ExerciseService:    exerciseService,
		WorkoutLogService:  service.NewWorkoutLogService(repos.workoutLogs, exerciseService),
		MeasurementService: service.NewMeasurementService(repos.measurements, repos.photos, fileStorage, cfg.S3.PresignExpiry),
		Metrics:            metricsManager,
		MetricsGatherer:    promRegistry,
		RateLimiter:        rateLimiter,
		LoginPerMinute:     cfg.RateLimit.LoginPerMinute,
		Sensors: calendar.Sensors{
			PointerDistance: cfg.Calendar.PointerDistance,
			TouchDelay:      cfg.Calendar.TouchDelay,
			TouchTolerance:  cfg.Calendar.TouchTolerance,
		},
		Heartbeat: cfg.Calendar.Heartbeat,
		Shutdown:  shutdown,
	}

	// --- Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, deps)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	server.RegisterOnShutdown(func() { close(shutdown) })

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server ...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Warnf("server shutdown: %s", err)
	}

	var closeErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("close %s: %w", closers[i].name, err))
		}
	}
	if closeErr != nil {
		log.Errorf("shutdown: %s", closeErr)
		os.Exit(1)
	}
	log.Info("server exiting")
}

func openRepositories(cfg config.DatabaseConfig) (repositories, func() error, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("using the in-memory database: data is lost on restart")
		return repositories{
			users:        memory.NewUserRepository(),
			calendars:    memory.NewCalendarRepository(),
			exercises:    memory.NewExerciseRepository(),
			workoutLogs:  memory.NewWorkoutLogRepository(),
			measurements: memory.NewMeasurementRepository(),
			photos:       memory.NewPhotoRepository(),
		}, func() error { return nil }, nil

	case "mongo", "":
		dbClient, err := mongo.ConnectDB(cfg.URI, dbTimeout)
		if err != nil {
			return repositories{}, nil, err
		}
		appDB := dbClient.Database(cfg.Name)
		log.Infof("mongo connected, database %q", cfg.Name)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			mongo.EnsureIndexes(ctx, appDB)
			log.Info("index creation process completed")
		}()

		return repositories{
			users:        mongo.NewMongoUserRepository(appDB),
			calendars:    mongo.NewMongoCalendarRepository(appDB),
			exercises:    mongo.NewMongoExerciseRepository(appDB),
			workoutLogs:  mongo.NewMongoWorkoutLogRepository(appDB),
			measurements: mongo.NewMongoMeasurementRepository(appDB),
			photos:       mongo.NewMongoPhotoRepository(appDB),
		}, func() error { return mongo.DisconnectDB(dbClient, dbTimeout) }, nil
	}
	return repositories{}, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
