package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/notification/application"
	"github.com/punjabheritage/storefront/internal/notification/domain"
	"github.com/punjabheritage/storefront/internal/notification/infrastructure/persistence/mysql"
	"github.com/punjabheritage/storefront/internal/notification/infrastructure/sender"
	"github.com/punjabheritage/storefront/internal/notification/interfaces/consumer"
	"github.com/punjabheritage/storefront/pkg/config"
	"github.com/punjabheritage/storefront/pkg/db"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
	"github.com/punjabheritage/storefront/pkg/middleware"
	"github.com/punjabheritage/storefront/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/notification/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}
	if err := pkglogger.Init(pkglogger.Config(cfg.Logger)); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(cfg.ServiceName)

	database, err := db.Init(db.Config(cfg.Database))
	if err != nil {
		pkglogger.Fatal(ctx, "connect mysql failed", "error", err)
	}
	defer database.Close()
	if err := database.AutoMigrate(&domain.Notification{}); err != nil {
		pkglogger.Fatal(ctx, "migrate notification tables failed", "error", err)
	}

	repo := mysql.NewNotificationRepository(database.DB)
	email := sender.NewSMTPSender(
		cfg.Notification.SMTPHost,
		cfg.Notification.SMTPPort,
		cfg.Notification.SMTPUsername,
		cfg.Notification.SMTPPassword,
		cfg.Notification.EmailFrom,
	)
	webhook := sender.NewWebhookSender()
	svc := application.NewService(repo, email, webhook, cfg.Notification.WebhookURL)

	kafkaConsumer, err := mq.NewConsumer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}, cfg.Kafka.OrderTopic)
	if err != nil {
		pkglogger.Fatal(ctx, "connect kafka failed", "error", err)
	}
	defer kafkaConsumer.Close()

	events := consumer.NewOrderEvents(svc, kafkaConsumer)
	go func() {
		if err := events.Run(ctx); err != nil && ctx.Err() == nil {
			pkglogger.Error(ctx, "order event consumer stopped", "error", err)
		}
	}()

	// A minimal HTTP surface: health, metrics and delivery history.
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	history := r.Group("/v1/admin/notifications")
	history.Use(middleware.GinAuth(cfg.Auth.JWTSecret), middleware.GinRequireRole("admin"))
	history.GET("/:number", func(c *gin.Context) {
		records, err := svc.History(c.Request.Context(), c.Param("number"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": records})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		pkglogger.Info(ctx, "notification service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			pkglogger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	pkglogger.Info(ctx, "shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error(ctx, "http shutdown failed", "error", err)
	}
}
