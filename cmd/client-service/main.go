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

	"planvault/internal/client/auth"
	"planvault/internal/client/consumer"
	"planvault/internal/client/handler"
	"planvault/internal/client/repository"
	"planvault/internal/client/service"
	"planvault/shared/cache"
	"planvault/shared/config"
	"planvault/shared/events"
	"planvault/shared/middleware"
	"planvault/shared/models"
	"planvault/shared/notify"
)

func main() {
	cfg := config.LoadClientService()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "client-service"))

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
	if err := events.DeclareTopology(ch, events.ClientExchange, events.ClientBindings()); err != nil {
		log.Error("failed to declare client topology", slog.Any("error", err))
		os.Exit(1)
	}
	if err := events.DeclareTopology(ch, events.GoalExchange, events.GoalBindings()); err != nil {
		log.Error("failed to declare goal topology", slog.Any("error", err))
		os.Exit(1)
	}
	ch.Close()

	// --- service wiring ---
	publisher := events.NewAMQPPublisher(conn, log)
	store := repository.NewPostgres(db)
	byID := cache.NewRedisCache[*models.Client](rdb, service.EntityNamespace, log)
	list := cache.NewRedisCache[[]models.Client](rdb, service.ListNamespace, log)
	clientSvc := service.New(store, byID, list, publisher, log)

	authenticator := middleware.NewAuthenticator(cfg.JWTSecret)
	users := auth.NewUserStore()
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if _, err := users.Create(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, auth.RoleAdmin); err != nil {
			log.Warn("failed to seed admin user", slog.Any("error", err))
		}
	}
	authHandler := auth.NewHandler(users, authenticator)
	clientHandler := handler.New(clientSvc)

	// Goal event consumer
	reg := prometheus.NewRegistry()
	sink := notify.NewLogSink(cfg.NotificationTopic, log)
	goalConsumer := consumer.New(log, consumer.NewMetrics(reg), sink)

	subscriber, err := events.NewSubscriber(conn, log, 4)
	if err != nil {
		log.Error("failed to create subscriber", slog.Any("error", err))
		os.Exit(1)
	}
	goalConsumer.Bind(subscriber)
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

	authHandler.Register(router.Group("/auth"))
	clients := router.Group("/clients")
	protected := router.Group("/clients", authenticator.Middleware())
	clientHandler.Register(clients, protected)

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

	log.Info("client service starting", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
