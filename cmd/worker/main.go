// Package main is the entry point for the stockgate background worker.
// It relays the transactional outbox and consumes the resulting tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"stockgate/internal/config"
	"stockgate/internal/infrastructure/queue"
	"stockgate/internal/infrastructure/storage/postgres"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockgate worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTime)
	taskHandlers := queue.NewHandlers(register_repo.NewStockRepo(txManager))

	var wg sync.WaitGroup

	// With a broker the relay only forwards; a separate asynq server consumes.
	var handler postgres.OutboxHandler
	if cfg.RedisEnabled() {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		client := asynq.NewClient(redisOpts)
		defer func() { _ = client.Close() }()
		handler = queue.NewForwarder(client)

		consumer := queue.NewWorker(queue.WorkerConfig{
			RedisOpts:   redisOpts,
			Concurrency: cfg.WorkerConcurrency,
			Handlers:    taskHandlers,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("task consumer stopped", "error", err)
				cancel()
			}
		}()
		log.Infow("forwarding outbox to asynq", "addr", cfg.RedisAddr)
	} else {
		handler = queue.NewInline(taskHandlers)
		log.Info("REDIS_ADDR not set, handling outbox events in-process")
	}

	relay := postgres.NewOutboxRelay(txManager, cfg.WorkerBatchSize, handler)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, log.WithComponent("outbox"), relay, cfg.WorkerPollInterval, cfg.WorkerDLQInterval)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func runRelay(ctx context.Context, log *logger.Logger, relay *postgres.OutboxRelay, pollInterval, dlqInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(dlqInterval)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain while full batches keep coming.
			for {
				n, err := relay.ProcessBatch(ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						log.Errorw("outbox batch failed", "error", err)
					}
					break
				}
				if n > 0 {
					log.Debugw("processed outbox batch", "count", n)
				}
				if n < relay.BatchSize() {
					break
				}
			}
		case <-dlqTicker.C:
			moved, err := relay.MoveToDLQ(ctx)
			if err != nil {
				log.Errorw("failed to move outbox messages to DLQ", "error", err)
				continue
			}
			if moved > 0 {
				log.Warnw("moved outbox messages to DLQ", "count", moved)
			}
		}
	}
}
