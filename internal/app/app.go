package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"todoapi/internal/config"
	"todoapi/internal/handlers"
	"todoapi/internal/logger"
	"todoapi/internal/repository/todo/file"
	"todoapi/internal/service"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	fs        afero.Fs
	server    *http.Server
	store     *file.Store
	service   *service.TodoService
	handler   *handlers.TodoHandler
	shutdowns []func(context.Context) error // run in reverse order on Shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		fs:        afero.NewOsFs(),
		shutdowns: make([]func(context.Context) error, 0),
	}
}

// WithFs replaces the filesystem backing the store. Must be called before Init.
func (a *App) WithFs(fs afero.Fs) *App {
	a.fs = fs
	return a
}

// Init builds logger, store, service and HTTP server. A store file that
// exists but cannot be parsed aborts start-up.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func(context.Context) error {
		logger.Info("App: Flushing logs")
		logger.Sync()
		return nil
	})

	a.store = file.NewWithFs(a.fs, a.config.Storage.Path)
	if err := a.store.HealthCheck(ctx); err != nil {
		logger.Error("App: Store is not usable", err, zap.String("path", a.store.Path()))
		return fmt.Errorf("checking store %s: %w", a.store.Path(), err)
	}
	logger.Info("App: Store ready", zap.String("path", a.store.Path()))

	a.service = service.NewTodoService(a.store)
	a.handler = handlers.NewTodoHandler(a.service)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      NewRouter(a.handler, a.config.HTTP),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	a.shutdowns = append(a.shutdowns, func(ctx context.Context) error {
		logger.Info("App: Stopping HTTP server")
		return a.server.Shutdown(ctx)
	})

	return nil
}

// Handler returns the routed handler. Init must run first; until then every
// request is answered with 503.
func (a *App) Handler() http.Handler {
	if a.server == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "app is not initialised", http.StatusServiceUnavailable)
		})
	}
	return a.server.Handler
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	var err error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.shutdowns[i](ctx))
	}
	a.shutdowns = nil
	return err
}
