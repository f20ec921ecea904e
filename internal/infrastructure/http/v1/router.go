// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockgate/internal/infrastructure/http/v1/handlers"
	"stockgate/internal/infrastructure/http/v1/middleware"
	"stockgate/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	GoodsReceipts handlers.GoodsReceiptService
	Balances      handlers.BalanceReader

	// History serves the audit trail; nil disables the endpoint
	History handlers.HistoryReader

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	// Development switches gin to debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))

	baseHandler := handlers.NewBaseHandler()

	grHandler := handlers.NewGoodsReceiptHandler(baseHandler, cfg.GoodsReceipts, cfg.History)
	grHandler.RegisterRoutes(v1.Group("/goods-receipts"), v1.Group("/purchase-orders"))

	stockHandler := handlers.NewStockHandler(baseHandler, cfg.Balances)
	stockGroup := v1.Group("/stock")
	{
		stockGroup.GET("/balances", stockHandler.ListBalances)
		stockGroup.GET("/balances/:productId/:warehouseId", stockHandler.GetBalance)
	}

	return router
}
