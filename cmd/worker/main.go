package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"tasklane.app/server/common/id"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/common/otel"
	"tasklane.app/server/core/config"
	"tasklane.app/server/core/db"
	"tasklane.app/server/core/db/sqlc"
	"tasklane.app/server/internal/mailer"
	"tasklane.app/server/internal/notification"
	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/store"
	"tasklane.app/server/internal/worker"
	"tasklane.app/server/internal/workflow"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "tasklane worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Workflow.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer producer.Close()

	m, err := mailer.New(cfg.Mail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create mailer", "error", err)
		os.Exit(1)
	}

	// Runs and steps commit one write at a time, so the engine uses the
	// pool-backed stores rather than a transaction.
	stores := store.NewStores(database.Queries())
	engine := workflow.NewEngine(stores, producer, workflow.Config{Lease: cfg.Workflow.Lease})
	engine.Register(notification.NewTaskAssignment(stores, m, cfg.Mail.Location()).Definition())

	txRunner := &workerTxRunnerAdapter{db: database}

	w := worker.New(consumer, engine, worker.Config{
		MaxAttempts: cfg.Workflow.MaxAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:        cfg.Pipeline.RedisStream,
		Group:         cfg.Pipeline.RedisGroup,
		Consumer:      cfg.Pipeline.RedisConsumer + "-reclaimer",
		RunLease:      cfg.Workflow.Lease,
		MinIdle:       5 * time.Minute,
		Interval:      1 * time.Minute,
		BatchSize:     10,
		MaxDeliveries: int64(cfg.Workflow.MaxAttempts),
	}, consumer, w.Handle, engine)

	dispatcher := worker.NewDispatcher(txRunner, producer, worker.DispatcherConfig{
		Interval:   cfg.Workflow.DispatchInterval,
		BatchSize:  cfg.Workflow.DispatchBatch,
		StallAfter: cfg.Workflow.StallAfter,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		reclaimer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-gctx.Done():
		slog.ErrorContext(ctx, "worker component exited unexpectedly")
	}

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reclaimer and dispatcher stop quickly; the worker may be mid-run.
	reclaimer.Stop()
	dispatcher.Stop()
	w.Stop()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

// workerTxRunnerAdapter bridges db.DB to worker.TxRunner.
type workerTxRunnerAdapter struct {
	db *db.DB
}

func (a *workerTxRunnerAdapter) WithTx(ctx context.Context, fn func(stores worker.StoreProvider) error) error {
	return a.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}

const banner = `
 _____         _    _                                        _             
|_   _|_ _ ___| | _| | __ _ _ __   ___  __      _____  _ __| | _____ _ __ 
  | |/ _' / __| |/ / |/ _' | '_ \ / _ \ \ \ /\ / / _ \| '__| |/ / _ \ '__|
  | | (_| \__ \   <| | (_| | | | |  __/  \ V  V / (_) | |  |   <  __/ |   
  |_|\__,_|___/_|\_\_|\__,_|_| |_|\___|   \_/\_/ \___/|_|  |_|\_\___|_|   
`
