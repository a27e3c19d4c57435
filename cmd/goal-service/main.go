package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planvault/internal/goal/clientcheck"
	"planvault/internal/goal/consumer"
	"planvault/internal/goal/handler"
	"planvault/internal/goal/repository"
	"planvault/internal/goal/service"
	"planvault/shared/cache"
	"planvault/shared/config"
	"planvault/shared/events"
	"planvault/shared/middleware"
	"planvault/shared/models"
	"planvault/shared/notify"
)

func main() {
	cfg := config.LoadGoalService()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "goal-service"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis connection (cache backend)
	rdb, err := cache.NewClient(cfg.RedisAddr, "", 0)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()

	// RabbitMQ connection and topology
	conn, err := events.DialWithRetry(ctx, events.ConnectionOptions{
		URL:           cfg.AMQPURL,
		RetryAttempts: 10,
		Delay:         time.Second,
		Logger:        log,
	})
	if err != nil {
		log.Error("failed to connect to rabbitmq", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("failed to open channel", slog.Any("error", err))
		os.Exit(1)
	}
	if err := events.DeclareTopology(ch, events.GoalExchange, events.GoalBindings()); err != nil {
		log.Error("failed to declare goal topology", slog.Any("error", err))
		os.Exit(1)
	}
	if err := events.DeclareTopology(ch, events.ClientExchange, events.ClientBindings()); err != nil {
		log.Error("failed to declare client topology", slog.Any("error", err))
		os.Exit(1)
	}
	ch.Close()

	// --- service wiring ---
	publisher := events.NewAMQPPublisher(conn, log)
	store := repository.NewPostgres(db)
	checker := clientcheck.NewHTTPChecker(cfg.ClientServiceURL, cfg.ClientCheckTimeout, log)
	byID := cache.NewRedisCache[*models.Goal](rdb, service.EntityNamespace, log)
	list := cache.NewRedisCache[[]models.Goal](rdb, service.ListNamespace, log)
	byClient := cache.NewRedisCache[[]models.Goal](rdb, service.ByClientNamespace, log)
	goalSvc := service.New(store, checker, byID, list, byClient, publisher, log)

	authenticator := middleware.NewAuthenticator(cfg.JWTSecret)
	goalHandler := handler.New(goalSvc)

	// Client event consumer
	reg := prometheus.NewRegistry()
	sink := notify.NewLogSink(cfg.NotificationTopic, log)
	clientConsumer := consumer.New(log, consumer.NewMetrics(reg), sink)

	subscriber, err := events.NewSubscriber(conn, log, 4)
	if err != nil {
		log.Error("failed to create subscriber", slog.Any("error", err))
		os.Exit(1)
	}
	clientConsumer.Bind(subscriber)
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error("subscriber stopped", slog.Any("error", err))
		}
	}()
	defer subscriber.Close()

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogging(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	goals := router.Group("/goals")
	protected := router.Group("/goals", authenticator.Middleware())
	byClientGroup := router.Group("/clients")
	goalHandler.Register(goals, protected, byClientGroup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("goal service starting", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
