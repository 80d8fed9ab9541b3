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
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"mira.app/federation/common/id"
	"mira.app/federation/common/logger"
	"mira.app/federation/common/otel"
	"mira.app/federation/core/config"
	"mira.app/federation/internal/http/middleware"
	httprouter "mira.app/federation/internal/http/router"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/queue"
	"mira.app/federation/internal/service"
	"mira.app/federation/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
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

	slog.InfoContext(ctx, "federation server starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"store", cfg.Store.Backend,
		"auth", cfg.AuthEnabled())
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	redisClient := connectRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	kv, closeStore, err := store.Open(ctx, cfg, redisClient)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.InfoContext(ctx, "store opened", "backend", cfg.Store.Backend)

	var (
		producer queue.Producer
		cycles   queue.CycleLog
	)
	if redisClient != nil {
		producer = queue.NewRedisProducer(redisClient, cfg.Redis.TaskStream, slog.Default())
		defer producer.Close()
		cycles = queue.NewRedisCycleLog(redisClient, cfg.Redis.CycleStream)
	}

	services := service.NewServices(kv, producer, cycles, mirror.NewAnalyzer(), cfg.Store)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
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

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
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

// connectRedis exits on failure unless the memory backend is selected, in
// which case the server runs without rebuild tasks or the cycle log.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	optional := cfg.Store.Backend == config.StoreBackendMemory

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		if optional {
			slog.WarnContext(ctx, "redis unavailable, running without task stream and cycle log", "error", err)
			_ = redisClient.Close()
			return nil
		}
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.TaskStream)
	return redisClient
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.NoStore())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		DispatchToken: cfg.DispatchToken,
	})

	return router
}

const banner = `
███╗   ███╗██╗██████╗  █████╗     ███████╗███████╗██████╗ 
████╗ ████║██║██╔══██╗██╔══██╗    ██╔════╝██╔════╝██╔══██╗
██╔████╔██║██║██████╔╝███████║    █████╗  █████╗  ██║  ██║
██║╚██╔╝██║██║██╔══██╗██╔══██║    ██╔══╝  ██╔══╝  ██║  ██║
██║ ╚═╝ ██║██║██║  ██║██║  ██║    ██║     ███████╗██████╔╝
╚═╝     ╚═╝╚═╝╚═╝  ╚═╝╚═╝  ╚═╝    ╚═╝     ╚══════╝╚═════╝ 
`
