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
	"github.com/punjabheritage/storefront/internal/order/application"
	"github.com/punjabheritage/storefront/internal/order/domain"
	"github.com/punjabheritage/storefront/internal/order/infrastructure/messaging"
	"github.com/punjabheritage/storefront/internal/order/infrastructure/payment"
	"github.com/punjabheritage/storefront/internal/order/infrastructure/persistence/localstore"
	ordermongo "github.com/punjabheritage/storefront/internal/order/infrastructure/persistence/mongodb"
	orderhttp "github.com/punjabheritage/storefront/internal/order/interfaces/http"
	"github.com/punjabheritage/storefront/pkg/config"
	"github.com/punjabheritage/storefront/pkg/filestore"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
	"github.com/punjabheritage/storefront/pkg/middleware"
	"github.com/punjabheritage/storefront/pkg/mongodb"
	"github.com/punjabheritage/storefront/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/order/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}
	if err := pkglogger.Init(pkglogger.Config(cfg.Logger)); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()

	m := metrics.New(cfg.ServiceName)

	fallback := localstore.New(filestore.New(cfg.Storage.DataDir))

	// Checkout survives a database outage on the fallback store alone.
	var orders domain.OrderRepository
	mongoClient, err := mongodb.Connect(mongodb.Config(cfg.Mongo))
	if err != nil {
		pkglogger.Warn(ctx, "mongodb unavailable, starting on fallback store only", "error", err)
		orders = ordermongo.NewUnavailableRepository(err)
	} else {
		orders = ordermongo.NewOrderRepository(mongoClient.Database())
		defer mongoClient.Close(ctx)
	}

	var events domain.EventPublisher
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		pkglogger.Warn(ctx, "kafka unavailable, order events disabled", "error", err)
	} else {
		events = messaging.NewKafkaPublisher(producer)
		defer producer.Close()
	}

	svc := application.NewService(orders, fallback, payment.NewMockGateway(), events, cfg.Kafka.OrderTopic, m)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	orderhttp.NewHandler(r, svc, cfg.Auth.JWTSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		pkglogger.Info(ctx, "order service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			pkglogger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	pkglogger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error(ctx, "http shutdown failed", "error", err)
	}
}
