package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"macro-dashboard/internal/config"
	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/metrics"
	"macro-dashboard/internal/tui"
	"macro-dashboard/pkg/logging"
	"macro-dashboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	loadLayoutFunc         = config.LoadLayout
	newLoggerFunc          = logging.New
	initTracerFunc         = tracing.InitTracer
	buildAppFunc           = dashboard.Build
	loadAuthorizedKeysFunc = loadAuthorizedKeys
	newWishServerFunc      = wish.NewServer
	listenAndServeFunc     = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

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

	tp, tracer, err := initTracerFunc(ctx, "macro-dashboard-ssh", "1.0.0",
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
	app := buildAppFunc(cfg, cfg.Resolve(layout), tracer, logger, metrics.CycleObserver{})
	app.Start(ctx)

	allowed, err := loadAuthorizedKeysFunc(cfg.SSHAuthorizedKeys)
	if err != nil {
		logger.Fatalw("failed to load authorized keys", "path", cfg.SSHAuthorizedKeys, "error", err)
	}
	if allowed == nil {
		logger.Warn("SSH_AUTHORIZED_KEYS not set, any public key may connect")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			ok := allowed.Permits(key)
			if ok {
				logger.Infow("SSH auth accepted", "user", ctx.User(), "fingerprint", fingerprint(key))
			} else {
				logger.Warnw("SSH auth denied", "user", ctx.User(), "fingerprint", fingerprint(key))
			}
			return ok
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(app, s.User())
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			wishlog.Middleware(),
		),
	)
	if err != nil {
		logger.Fatalw("failed to create SSH server", "error", err)
	}

	if srv != nil {
		serve := listenAndServeFunc
		go func() {
			logger.Infow("SSH server listening", "addr", addr)
			if err := serve(srv); err != nil && err != ssh.ErrServerClosed {
				logger.Errorw("SSH server stopped", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down SSH server...")

	app.Stop()
	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("SSH server shutdown error", "error", err)
		}
	}

	logger.Info("SSH server exited")
}
