package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/admin/application"
	admindomain "github.com/punjabheritage/storefront/internal/admin/domain"
	adminmysql "github.com/punjabheritage/storefront/internal/admin/infrastructure/persistence/mysql"
	adminhttp "github.com/punjabheritage/storefront/internal/admin/interfaces/http"
	catalogdomain "github.com/punjabheritage/storefront/internal/catalog/domain"
	cataloglocal "github.com/punjabheritage/storefront/internal/catalog/infrastructure/persistence/localstore"
	catalogmongo "github.com/punjabheritage/storefront/internal/catalog/infrastructure/persistence/mongodb"
	orderapp "github.com/punjabheritage/storefront/internal/order/application"
	orderdomain "github.com/punjabheritage/storefront/internal/order/domain"
	"github.com/punjabheritage/storefront/internal/order/infrastructure/payment"
	orderlocal "github.com/punjabheritage/storefront/internal/order/infrastructure/persistence/localstore"
	ordermongo "github.com/punjabheritage/storefront/internal/order/infrastructure/persistence/mongodb"
	"github.com/punjabheritage/storefront/pkg/config"
	"github.com/punjabheritage/storefront/pkg/db"
	"github.com/punjabheritage/storefront/pkg/filestore"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
	"github.com/punjabheritage/storefront/pkg/middleware"
	"github.com/punjabheritage/storefront/pkg/mongodb"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/admin/config.toml", "path to config file")
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

	database, err := db.Init(db.Config(cfg.Database))
	if err != nil {
		pkglogger.Fatal(ctx, "connect mysql failed", "error", err)
	}
	defer database.Close()
	if err := database.AutoMigrate(&admindomain.Admin{}); err != nil {
		pkglogger.Fatal(ctx, "migrate admin tables failed", "error", err)
	}

	adminRepo := adminmysql.NewAdminRepository(database.DB)
	tokenTTL := time.Duration(cfg.Auth.TokenTTL) * time.Minute
	adminSvc := application.NewAdminService(adminRepo, cfg.Auth.JWTSecret, tokenTTL)
	seedDevAdmin(ctx, cfg, adminSvc)

	// Analytics reads the same stores the catalog and order services
	// write, so the summary reflects live data without extra plumbing.
	fs := filestore.New(cfg.Storage.DataDir)
	var productRepo catalogdomain.ProductRepository
	var orderRepo orderdomain.OrderRepository
	mongoClient, err := mongodb.Connect(mongodb.Config(cfg.Mongo))
	if err != nil {
		pkglogger.Warn(ctx, "mongodb unavailable, analytics limited to fallback store", "error", err)
		productRepo = catalogmongo.NewUnavailableRepository(err)
		orderRepo = ordermongo.NewUnavailableRepository(err)
	} else {
		productRepo = catalogmongo.NewProductRepository(mongoClient.Database())
		orderRepo = ordermongo.NewOrderRepository(mongoClient.Database())
		defer mongoClient.Close(ctx)
	}

	orderSvc := orderapp.NewService(orderRepo, orderlocal.New(fs), payment.NewMockGateway(), nil, "", nil)
	analytics := application.NewAnalyticsService(orderSvc, productRepo, cataloglocal.New(fs))

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	adminhttp.NewHandler(r, adminSvc, analytics, cfg.Auth.JWTSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		pkglogger.Info(ctx, "admin service listening", "addr", srv.Addr)
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

// seedDevAdmin creates the bootstrap account outside production so a fresh
// environment is immediately usable.
func seedDevAdmin(ctx context.Context, cfg *config.Config, svc *application.AdminService) {
	if cfg.Environment == "prod" {
		return
	}
	_, err := svc.CreateAdmin(ctx, application.CreateAdminCommand{
		Username: "admin",
		Password: "changeme-please",
		Role:     "admin",
	})
	if err != nil && !errors.Is(err, admindomain.ErrDuplicateUsername) {
		pkglogger.Warn(ctx, "failed to seed dev admin", "error", err)
	}
}
