package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/application"
	"github.com/wayfinder-mobility/service-navigation/internal/clients/osrm"
	"github.com/wayfinder-mobility/service-navigation/internal/config"
	"github.com/wayfinder-mobility/service-navigation/internal/database"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	navEvents "github.com/wayfinder-mobility/service-navigation/internal/events"
	"github.com/wayfinder-mobility/service-navigation/internal/handler"
	"github.com/wayfinder-mobility/service-navigation/internal/health"
	"github.com/wayfinder-mobility/service-navigation/internal/kafka"
	"github.com/wayfinder-mobility/service-navigation/internal/logger"
	"github.com/wayfinder-mobility/service-navigation/internal/metrics"
	"github.com/wayfinder-mobility/service-navigation/internal/middleware"
	"github.com/wayfinder-mobility/service-navigation/internal/report"
	"github.com/wayfinder-mobility/service-navigation/internal/repository"
	"github.com/wayfinder-mobility/service-navigation/internal/speech"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-navigation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-navigation",
		zap.String("port", cfg.Port),
	)

	// Initialize error reporting
	if err := report.Setup(cfg.SentryDSN, cfg.AppEnv); err != nil {
		log.Fatal("failed to initialize sentry", zap.Error(err))
	}
	defer report.Flush()

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := db.AutoMigrate(&repository.TripModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}
	log.Info("database migration completed")

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories and routing client
	tripRepo := repository.NewGormTripRepository(db)
	router := osrm.NewClient(cfg.RouterConfig.BaseURL, cfg.RouterConfig.Timeout, log)

	// Initialize announcement dispatch
	var speaker navigation.Speaker
	if cfg.KafkaConfig.SpeechTopic != "" {
		speaker = speech.NewKafkaSpeaker(kafkaProducer, cfg.KafkaConfig.SpeechTopic, "service-navigation")
	} else {
		speaker = speech.NewLogSpeaker(log)
	}
	announcer := navigation.NewAnnouncer(speaker, log)

	// Initialize threshold policy
	base := navigation.Thresholds{
		CompletionRadiusMeters:   cfg.NavConfig.CompletionRadiusMeters,
		OffRouteMeters:           cfg.NavConfig.OffRouteMeters,
		AnnouncementRadiusMeters: cfg.NavConfig.AnnouncementRadiusMeters,
	}
	var policy navigation.ThresholdPolicy
	if cfg.NavConfig.ScaleWithAccuracy {
		policy = navigation.NewAccuracyScaledThresholdPolicy(base, cfg.NavConfig.ReferenceAccuracyMeters, cfg.NavConfig.MaxThresholdScale)
	} else {
		policy = navigation.NewStaticThresholdPolicy(base)
	}

	// Initialize application service
	navService := application.NewNavigationService(
		router,
		tripRepo,
		kafkaProducer,
		cfg.KafkaConfig.EventsTopic,
		announcer,
		policy,
		navigation.TrackerConfig{
			AccuracyCeilingMeters: cfg.NavConfig.AccuracyCeilingMeters,
			JitterEpsilonMeters:   cfg.NavConfig.JitterEpsilonMeters,
		},
		cfg.NavConfig.OffRouteDebounce,
		log,
	)

	// Initialize and start position event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "navigation-service"
	positionConsumer := navEvents.NewPositionEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		cfg.KafkaConfig.PositionsTopic,
		navService,
		log,
	)
	defer func() { _ = positionConsumer.Close() }()

	go func() {
		log.Info("starting position event consumer")
		if err := positionConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("position event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	navHandler := handler.NewNavigationHandler(navService)
	tripHandler := handler.NewTripHandler(navService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Apply global middleware
	engine.Use(middleware.RecoveryMiddleware(log))
	engine.Use(middleware.LoggerMiddleware(log))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-navigation")
	healthHandler.RegisterRoutes(engine)

	// Register metrics endpoint
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Register routes
	navHandler.RegisterRoutes(&engine.RouterGroup)
	tripHandler.RegisterRoutes(&engine.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-navigation...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-navigation stopped")
}
