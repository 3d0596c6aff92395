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
	"github.com/punjabheritage/storefront/internal/catalog/application"
	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"github.com/punjabheritage/storefront/internal/catalog/infrastructure/messaging"
	"github.com/punjabheritage/storefront/internal/catalog/infrastructure/persistence/localstore"
	catalogmongo "github.com/punjabheritage/storefront/internal/catalog/infrastructure/persistence/mongodb"
	cataloghttp "github.com/punjabheritage/storefront/internal/catalog/interfaces/http"
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
	flag.StringVar(&configPath, "config", "configs/catalog/config.toml", "path to config file")
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

	// The catalog must come up even when the database is down; the sync
	// service then serves from the fallback store until it recovers.
	var products domain.ProductRepository
	mongoClient, err := mongodb.Connect(mongodb.Config(cfg.Mongo))
	if err != nil {
		pkglogger.Warn(ctx, "mongodb unavailable, starting on fallback store only", "error", err)
		products = catalogmongo.NewUnavailableRepository(err)
	} else {
		products = catalogmongo.NewProductRepository(mongoClient.Database())
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
		pkglogger.Warn(ctx, "kafka unavailable, catalog events disabled", "error", err)
	} else {
		events = messaging.NewKafkaPublisher(producer)
		defer producer.Close()
	}

	svc := application.NewSyncService(products, fallback, events, cfg.Kafka.ProductTopic, m)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	cataloghttp.NewHandler(r, svc, cfg.Auth.JWTSecret)

	serve(ctx, cfg, r)
}

func serve(ctx context.Context, cfg *config.Config, handler http.Handler) {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		pkglogger.Info(ctx, "catalog service listening", "addr", srv.Addr)
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
