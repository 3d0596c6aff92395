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
	"github.com/punjabheritage/storefront/internal/cart/application"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	"github.com/punjabheritage/storefront/internal/cart/infrastructure/channel"
	"github.com/punjabheritage/storefront/internal/cart/infrastructure/persistence/mysql"
	cartchannel "github.com/punjabheritage/storefront/internal/cart/interfaces/channel"
	carthttp "github.com/punjabheritage/storefront/internal/cart/interfaces/http"
	"github.com/punjabheritage/storefront/pkg/cache"
	"github.com/punjabheritage/storefront/pkg/config"
	"github.com/punjabheritage/storefront/pkg/db"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/cart/config.toml", "path to config file")
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
	if err := database.AutoMigrate(&domain.Cart{}, &domain.CartItem{}); err != nil {
		pkglogger.Fatal(ctx, "migrate cart tables failed", "error", err)
	}

	svc := application.NewCartService(mysql.NewCartRepository(database.DB))

	redisCache, err := cache.New(cache.Config(cfg.Redis))
	if err != nil {
		pkglogger.Fatal(ctx, "connect redis failed", "error", err)
	}
	defer redisCache.Close()

	server := channel.NewRedisServer(redisCache)
	defer server.Close()
	dispatcher := cartchannel.NewDispatcher(svc, server)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			pkglogger.Error(ctx, "cart dispatcher stopped", "error", err)
		}
	}()

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	carthttp.NewHandler(r, svc, cfg.Auth.JWTSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		pkglogger.Info(ctx, "cart service listening", "addr", srv.Addr)
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
