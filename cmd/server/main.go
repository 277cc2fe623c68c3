package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"macro-dashboard/internal/bot"
	"macro-dashboard/internal/cache"
	"macro-dashboard/internal/config"
	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/handler"
	"macro-dashboard/internal/live"
	"macro-dashboard/internal/metrics"
	"macro-dashboard/pkg/logging"
	"macro-dashboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "macro-dashboard/docs"
)

const (
	serviceName = "macro-dashboard"
	version     = "1.0.0"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	loadLayoutFunc         = config.LoadLayout
	newLoggerFunc          = logging.New
	initTracerFunc         = tracing.InitTracer
	buildAppFunc           = dashboard.Build
	connectRedisFunc       = cache.Connect
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Macro & Crypto Dashboard API
// @version         1.0
// @description     Widget snapshots and manual refresh for the macro and crypto dashboard.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	logger := newLoggerFunc(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, serviceName, version,
		tracing.RelayModeKey.String(cfg.RelayMode),
		tracing.DisplayTZKey.String(cfg.DisplayTZ),
	)
	if err != nil {
		logger.Fatalw("failed to initialize tracer", "error", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Errorw("error shutting down tracer provider", "error", err)
		}
	}()

	layout, err := loadLayoutFunc(cfg.LayoutPath)
	if err != nil {
		logger.Fatalw("failed to load dashboard layout", "path", cfg.LayoutPath, "error", err)
	}
	layout = cfg.Resolve(layout)

	app := buildAppFunc(cfg, layout, tracer, logger, metrics.CycleObserver{})

	hub := live.NewHub(logger)
	app.OnUpdate(hub.Publish)

	app.Start(ctx)

	// The mirror attaches once Redis answers; widgets do not wait for it.
	var background sync.WaitGroup
	if cfg.RedisURL != "" {
		connect := connectRedisFunc
		background.Add(1)
		go func() {
			defer background.Done()
			runMirror(ctx, connect, cfg, app, logger)
		}()
	}

	stopBot, err := startTelegramBotFunc(cfg.TelegramBotToken, app, logger)
	if err != nil {
		logger.Errorw("Telegram bot disabled", "error", err)
		stopBot = func() {}
	}

	h := handler.New(tracer, app, hub, logger)

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(handler.RequestLogger(logger))

	h.RegisterRoutes(r, cfg.AdminAPIKey)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	serve := startHTTPServerFunc
	background.Add(1)
	go func() {
		defer background.Done()
		logger.Infow("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := serve(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down server...")

	stopBot()
	app.Stop()
	hub.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Errorw("server forced to shutdown", "error", err)
	}
	background.Wait()

	logger.Info("Server exiting")
}

type redisConnector func(ctx context.Context, addr string, logger *zap.SugaredLogger) (*redis.Client, error)

// runMirror copies every widget update into Redis until ctx is cancelled.
func runMirror(ctx context.Context, connect redisConnector, cfg *config.Config, app *dashboard.App, logger *zap.SugaredLogger) {
	client, err := connect(ctx, cfg.RedisURL, logger)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warnw("snapshot mirror disabled", "error", err)
		}
		return
	}
	defer client.Close()

	mirror := cache.NewSnapshotMirror(client, cfg.SnapshotTTL(), logger)
	app.OnUpdate(mirror.Publish)
	mirror.Run(ctx)
}
