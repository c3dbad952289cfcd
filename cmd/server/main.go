package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"tasklane.app/server/common/id"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/common/otel"
	"tasklane.app/server/core/config"
	"tasklane.app/server/core/db"
	"tasklane.app/server/internal/http/handler/webhook"
	"tasklane.app/server/internal/http/middleware"
	httprouter "tasklane.app/server/internal/http/router"
	"tasklane.app/server/internal/mailer"
	"tasklane.app/server/internal/notification"
	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/service"
	"tasklane.app/server/internal/store"
	"tasklane.app/server/internal/workflow"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "tasklane server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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

	runProducer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer runProducer.Close()

	m, err := mailer.New(cfg.Mail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create mailer", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Queries())
	loc := cfg.Mail.Location()

	// The server only starts runs; the definition is registered so Start
	// knows the workflow's initial state.
	engine := workflow.NewEngine(stores, runProducer, workflow.Config{Lease: cfg.Workflow.Lease})
	engine.Register(notification.NewTaskAssignment(stores, m, loc).Definition())

	services := service.NewServices(stores, service.NewTxRunner(database), engine, cfg.AppURL, loc)

	usermanagement.SetAPIKey(cfg.WorkOS.APIKey)
	jwksURL, err := usermanagement.GetJWKSURL(cfg.WorkOS.ClientID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build jwks url", "error", err)
		os.Exit(1)
	}

	verifier, err := middleware.NewJWKSVerifier(ctx, jwksURL.String())
	if err != nil {
		slog.ErrorContext(ctx, "failed to load signing keys", "error", err)
		os.Exit(1)
	}
	defer verifier.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, httprouter.RouterConfig{
		Verifier:         verifier,
		WebhookValidator: webhook.NewWorkOSValidator(cfg.WorkOS.WebhookSecret),
		Location:         loc,
		Readiness: map[string]httprouter.ReadinessCheck{
			"database": database.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, routerCfg httprouter.RouterConfig) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName, otelgin.WithFilter(func(r *http.Request) bool {
			// probes
			return r.URL.Path != "/health" && r.URL.Path != "/ready"
		})))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.TraceHeader(cfg.Pipeline.TraceHeaderName))

	httprouter.SetupRoutes(router, services, routerCfg)

	return router
}

const banner = `
 _____         _    _                  
|_   _|_ _ ___| | _| | __ _ _ __   ___ 
  | |/ _' / __| |/ / |/ _' | '_ \ / _ \
  | | (_| \__ \   <| | (_| | | | |  __/
  |_|\__,_|___/_|\_\_|\__,_|_| |_|\___|
                              server
`
