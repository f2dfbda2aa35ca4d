package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/config"
	"github.com/vovakirdan/pulsechat/internal/core"
	applog "github.com/vovakirdan/pulsechat/internal/log"
	"github.com/vovakirdan/pulsechat/internal/metrics"
	"github.com/vovakirdan/pulsechat/internal/presence"
	"github.com/vovakirdan/pulsechat/internal/store"
	"github.com/vovakirdan/pulsechat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/pulsechat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	m := metrics.New()
	authService := auth.NewService(st,
		auth.WithGuestPrefix(cfg.GuestPrefix),
		auth.WithHashCost(cfg.HashCost),
		auth.WithLogger(applog.Component(logger, "auth")),
	)
	hub := core.NewHub(st, authService,
		core.WithPresence(presence.NewRegistry()),
		core.WithMetrics(m),
		core.WithHistoryLimit(cfg.HistoryLimit),
		core.WithLogger(applog.Component(logger, "hub")),
	)

	if cfg.PurgeOnStart {
		if err := hub.Purge(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("purge on start: %w", err)
		}
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("admin_jwt_secret is empty, POST /clear is open to anyone who can reach the server")
	}

	server := transporthttp.NewServer(hub, cfg, m, applog.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

// Purge deletes all messages and reaction counters in the configured database without starting the server.
func Purge(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	hub := core.NewHub(st, nil, core.WithLogger(applog.Component(logger, "hub")))
	return hub.Purge(ctx)
}
