package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/fulfillment-api/api/swagger"
	"github.com/noah-isme/fulfillment-api/internal/handler"
	"github.com/noah-isme/fulfillment-api/internal/pricing"
	"github.com/noah-isme/fulfillment-api/internal/repository"
	"github.com/noah-isme/fulfillment-api/internal/service"
	"github.com/noah-isme/fulfillment-api/pkg/cache"
	"github.com/noah-isme/fulfillment-api/pkg/config"
	"github.com/noah-isme/fulfillment-api/pkg/database"
	"github.com/noah-isme/fulfillment-api/pkg/export"
	"github.com/noah-isme/fulfillment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fulfillment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fulfillment-api/pkg/middleware/requestid"
	"github.com/noah-isme/fulfillment-api/pkg/storage"
)

// @title Fulfillment API
// @version 1.0.0
// @description Inventory, archive and order management for 3PL customers
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, billing cache disabled", "error", err)
		redisClient = nil
	}

	customerRepo := repository.NewCustomerRepository(db)
	itemRepo := repository.NewItemRepository(db)
	archiveRepo := repository.NewArchivedItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Billing.CacheTTL, logr, redisClient != nil)

	exportStore, err := storage.NewLocalStore(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export store", "error", err)
	}
	if pruned, err := exportStore.PruneOlderThan(cfg.Export.LinkTTL); err != nil {
		logr.Sugar().Warnw("failed to prune expired statements", "error", err)
	} else if len(pruned) > 0 {
		logr.Sugar().Infow("pruned expired statements", "count", len(pruned))
	}
	linkSecret := cfg.Export.LinkSecret
	if linkSecret == "" {
		linkSecret = cfg.JWT.Secret
	}
	linkSigner := storage.NewLinkSigner(linkSecret, cfg.Export.LinkTTL)

	calculator := pricing.NewVolumeRateCalculator()
	billingSvc := service.NewBillingService(customerRepo, itemRepo, calculator, cacheSvc, service.BillingConfig{
		CacheTTL:      cfg.Billing.CacheTTL,
		StatementName: cfg.Billing.StatementName,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter(), exportStore, linkSigner)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	customerSvc := service.NewCustomerService(customerRepo, validate, logr, billingSvc)
	itemSvc := service.NewItemService(itemRepo, customerRepo, calculator, validate, logr, billingSvc)
	archiveSvc := service.NewArchivedItemService(archiveRepo, customerRepo, itemRepo, validate, logr)
	orderSvc := service.NewOrderService(orderRepo, customerRepo, itemRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Customers: handler.NewCustomerHandler(customerSvc),
		Items:     handler.NewItemHandler(itemSvc),
		Archives:  handler.NewArchivedItemHandler(archiveSvc),
		Orders:    handler.NewOrderHandler(orderSvc),
		Billing:   handler.NewBillingHandler(billingSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc),
	}
	handler.RegisterRoutes(r, handlers, authSvc, userRepo, metricsSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
