package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleetops/internal/app"
	"fleetops/internal/config"
	"fleetops/internal/events"
	"fleetops/internal/handler"
	"fleetops/internal/logging"
	"fleetops/internal/middleware"
	internalRedis "fleetops/internal/redis"
	"fleetops/internal/repository/postgres"
	"fleetops/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("failed to apply schema")
		}
	}

	// The cache is advisory, so the service starts without it.
	var redisClient *redis.Client
	redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, serving from the record store only")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info("connected to Redis")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.WithField("topic", cfg.Kafka.Topic).Info("publishing assignment events to Kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	server := wireServer(db, redisClient, publisher, nrApp, cfg, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher events.Publisher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	log *logrus.Logger,
) *http.Server {
	var cacheStore internalRedis.CacheStoreInterface
	var idempotencyClient redis.Cmdable
	if redisClient != nil {
		cacheStore = internalRedis.NewCacheStore(redisClient)
		idempotencyClient = redisClient
	}

	// Initialize repositories.
	assignmentRepo := postgres.NewAssignmentRepository(db)
	cabRepo := postgres.NewCabRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	// Initialize services.
	assignmentService := service.NewAssignmentService(assignmentRepo, cabRepo, driverRepo, cacheStore, publisher, log, cfg.Trip.UpdateAttempts)
	cabService := service.NewCabService(cabRepo, cacheStore, log)
	expenseService := service.NewExpenseService(expenseRepo, cacheStore, log)
	aggregatorService := service.NewAggregatorService(assignmentRepo, cabRepo, driverRepo, adminRepo, cacheStore, log)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheStore, log)
	adminService := service.NewAdminService(adminRepo, assignmentRepo, cabRepo, driverRepo, cacheStore, log)

	// Initialize handlers.
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, handler.NewUploads(cfg.Uploads.Dir))
	cabHandler := handler.NewCabHandler(cabService)
	expenseHandler := handler.NewExpenseHandler(expenseService, aggregatorService)
	adminHandler := handler.NewAdminHandler(adminService, analyticsService)

	router := app.NewRouter(app.RouterDeps{
		AssignmentHandler: assignmentHandler,
		CabHandler:        cabHandler,
		ExpenseHandler:    expenseHandler,
		AdminHandler:      adminHandler,
		RedisClient:       idempotencyClient,
		NewRelicApp:       nrApp,
		JWTSecret:         cfg.Auth.JWTSecret,
		Logger:            log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.CORS(cfg.CORS.AllowedOrigins, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
