package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/core"
	"github.com/vovakirdan/pdxirc/internal/store"
	"github.com/vovakirdan/pdxirc/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/pdxirc/internal/transport/http"
	"github.com/vovakirdan/pdxirc/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	tcp             *tcp.Server
	http            *stdhttp.Server
	httpLn          net.Listener
	listening       bool
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The SQLite
// catalog is opened only when cfg.DatabasePath is set, and the HTTP server
// only when cfg.HTTPAddr is set.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	opts := core.Options{
		MaxChannels: cfg.MaxChannels,
		MaxMembers:  cfg.MaxMembers,
	}

	var st store.Store
	if cfg.DatabasePath != "" {
		s, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
		st = s
		opts.Catalog = s
	}

	hub := core.NewHub(opts, logger)

	a := &App{
		tcp:             tcp.NewServer(hub, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.http = transporthttp.NewServer(hub, cfg, logger)
	}
	return a, nil
}

// Hub exposes the chat hub.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// Listen binds every listener. Run calls it when needed; calling it first
// lets callers learn the bound addresses.
func (a *App) Listen() error {
	if a.listening {
		return nil
	}
	if err := a.tcp.Listen(); err != nil {
		return err
	}
	if a.http != nil {
		ln, err := net.Listen("tcp", a.http.Addr)
		if err != nil {
			if closeErr := a.tcp.Close(); closeErr != nil {
				a.log.Warn().Err(closeErr).Msg("failed to close tcp listener")
			}
			return fmt.Errorf("listen %s: %w", a.http.Addr, err)
		}
		a.httpLn = ln
	}
	a.listening = true
	return nil
}

// TCPAddr returns the bound protocol address, or nil before Listen.
func (a *App) TCPAddr() net.Addr {
	return a.tcp.Addr()
}

// HTTPAddr returns the bound HTTP address, or nil when HTTP is disabled or not yet bound.
func (a *App) HTTPAddr() net.Addr {
	if a.httpLn == nil {
		return nil
	}
	return a.httpLn.Addr()
}

// Run restores persisted channels, starts the servers and blocks until
// context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.hub.Restore(ctx); err != nil {
		return err
	}
	if err := a.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tcpErr := make(chan error, 1)
	go func() {
		tcpErr <- a.tcp.Serve(ctx)
	}()

	httpErr := make(chan error, 1)
	if a.http != nil {
		// WebSocket handlers outlive Shutdown unless their request context ends.
		a.http.BaseContext = func(net.Listener) context.Context { return ctx }
		go func() {
			a.log.Info().Str("addr", a.httpLn.Addr().String()).Msg("http listener started")
			if err := a.http.Serve(a.httpLn); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				httpErr <- err
				return
			}
			httpErr <- nil
		}()
	}

	var runErr error
	select {
	case err := <-tcpErr:
		runErr = err
		tcpErr <- nil
	case err := <-httpErr:
		runErr = err
		httpErr <- nil
	case <-ctx.Done():
	}
	cancel()

	if a.http != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer stop()

		a.log.Info().Msg("shutting down http server")
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, err)
		}
		if err := <-httpErr; err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	a.log.Info().Msg("shutting down tcp server")
	if err := <-tcpErr; err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
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
