// Package main is the entry point for the stockgate API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"stockgate/internal/config"
	"stockgate/internal/core/lock"
	"stockgate/internal/domain/auth"
	"stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
	"stockgate/internal/domain/registers/stock"
	v1 "stockgate/internal/infrastructure/http/v1"
	"stockgate/internal/infrastructure/http/v1/handlers"
	redislock "stockgate/internal/infrastructure/lock"
	"stockgate/internal/infrastructure/numerator"
	"stockgate/internal/infrastructure/storage/postgres"
	"stockgate/internal/infrastructure/storage/postgres/catalog_repo"
	"stockgate/internal/infrastructure/storage/postgres/document_repo"
	"stockgate/internal/infrastructure/storage/postgres/procurement_repo"
	"stockgate/internal/infrastructure/storage/postgres/register_repo"
	"stockgate/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting stockgate server", "env", cfg.AppEnv)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = cfg.DBConnLifetime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.DBAutoMigrate {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Fatalw("failed to apply schema", "error", err)
		}
		log.Info("database schema applied")
	}

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTime)

	// --- Approval lock ---
	healthChecks := map[string]handlers.Pinger{
		"database": pool,
	}

	var locker lock.Locker = lock.Local{}
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		locker = redislock.NewRedisLocker(rdb, "stockgate:lock:")
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Infow("redis approval lock enabled", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, approvals are serialized by row locks only")
	}

	// --- Repositories ---
	receiptRepo := document_repo.NewGoodsReceiptRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	procurementRepo := procurement_repo.New(txManager)
	references := catalog_repo.NewReferenceRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	ledger := stock.NewService(stockRepo)

	// --- Goods receipt service ---
	receipts := goods_receipt.NewService(goods_receipt.Deps{
		Repo:            receiptRepo,
		References:      references,
		PurchaseOrders:  procurementRepo,
		Ledger:          ledger,
		Prices:          pricing.NewResolver(procurementRepo),
		Propagator:      procurement.NewPropagator(procurementRepo),
		Numerator:       numerator.New(txManager),
		TxManager:       txManager,
		Events:          postgres.NewOutboxPublisher(txManager),
		Audit:           auditService,
		Locker:          locker,
		NumberAttempts:  cfg.NumberRetryAttempts,
		ApprovalLockTTL: cfg.ApprovalLockTTL,
	})

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		JWTValidator:  jwtService,
		GoodsReceipts: receipts,
		Balances:      ledger,
		History:       auditService,
		HealthChecks:  healthChecks,
		Development:   cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  cfg.AppIdleTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	postgres.LogPoolStats(shutdownCtx, pool)
	log.Info("server stopped")
}
