package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"streamingapp/api"
	"streamingapp/config"
	"streamingapp/storage"
	"streamingapp/util/goroutine"

	"go.uber.org/zap"
)

// App represents the streamingapp process with all its components.
type App struct {
	// Configuration
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	// Shared MongoDB connection
	Connection *storage.Connection
	Database   *storage.MongoDB

	// Health, readiness and metrics
	Server *api.Server

	// Lifecycle
	serviceWg sync.WaitGroup
}

// NewApp creates a new application instance and initializes all components.
// Nothing touches the network until Start.
func NewApp(ctx context.Context, configFile string) (*App, error) {
	cfg, err := InitConfig(configFile)
	if err != nil {
		return nil, err
	}

	logger, sugar, err := InitLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newApp(cfg, logger, sugar), nil
}

func newApp(cfg *config.Config, logger *zap.Logger, sugar *zap.SugaredLogger, opts ...storage.Option) *App {
	app := &App{
		Config: cfg,
		Logger: logger,
		Sugar:  sugar,
	}

	sugar.Info("streamingapp starting...")
	LogConfig(cfg, sugar)

	app.Connection = InitConnection(cfg, sugar, opts...)

	if cfg.Server.Enabled {
		app.Server = api.NewServer(cfg.Server.Addr, app.Connection, sugar)
	}
	return app
}

// Start starts the health server, then bootstraps the database connection.
// The server comes up first so readiness is observable during the handshake.
func (a *App) Start(ctx context.Context) error {
	if a.Server != nil {
		a.serviceWg.Add(1)
		goroutine.Go("health-server", a.Sugar, nil, func() {
			defer a.serviceWg.Done()
			if err := a.Server.Start(); err != nil {
				a.Sugar.Errorw("Health server stopped", "error", err)
			}
		})
	}

	db, err := ConnectDatabase(ctx, a.Connection, a.Config.StartupMode, a.Sugar)
	if err != nil {
		if a.Config.IsGracefulMode() {
			return nil
		}
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.Database = db
	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or ctx is done.
func (a *App) WaitForShutdown(ctx context.Context) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop health server", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.serviceWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.Sugar.Warn("Health server shutdown timed out")
	}

	if a.Connection != nil {
		if err := a.Connection.Close(ctx); err != nil {
			a.Sugar.Errorw("Failed to close MongoDB connection", "error", err)
		}
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
