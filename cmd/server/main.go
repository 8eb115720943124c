package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studywise/session-service/internal/cache"
	"github.com/studywise/session-service/internal/config"
	"github.com/studywise/session-service/internal/draft"
	"github.com/studywise/session-service/internal/events"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/handlers"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/repositories/postgres"
	"github.com/studywise/session-service/internal/services"
	"github.com/studywise/session-service/internal/session"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
	"github.com/studywise/session-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.SessionArchive{}); err != nil {
		logger.LogError(err, "Failed to run migrations")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	var publisher events.Publisher
	kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       utils.ToSlogLogger(logger),
	})
	if err != nil {
		logger.LogError(err, "Kafka unavailable, falling back to in-memory event publisher")
		publisher = events.NewMockEventPublisher(utils.ToSlogLogger(logger))
	} else {
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	v := validator.New()
	gw := gateway.NewHTTPGateway(cfg.BackendBaseURL, logger)
	cacheSvc := cache.NewRedisCache(redisClient, logger)
	archive := postgres.NewSessionArchivePostgreSQL(db)
	exportSvc := services.NewExportService(archive, logger)

	manager := session.NewManager(gw, logger, publisher, cacheSvc, archive)
	registry := draft.NewRegistry(v, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	hm := handlers.NewHandlerManager(manager, registry, gw, archive, exportSvc, v, logger)
	hm.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Session service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "Forced shutdown")
	}
	manager.Close()
	logger.Info("Server stopped")
}
