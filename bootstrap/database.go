package bootstrap

import (
	"context"
	"os"

	"streamingapp/config"
	"streamingapp/storage"
	"streamingapp/util"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// exitFunc terminates the process; tests replace it to observe fail-fast behaviour
var exitFunc = os.Exit

// InitConnection creates the process-wide MongoDB connection from configuration.
// It does not touch the network.
func InitConnection(cfg *config.Config, sugar *zap.SugaredLogger, opts ...storage.Option) *storage.Connection {
	base := []storage.Option{
		storage.WithLogger(sugar),
		storage.WithTracer(otel.Tracer("streamingapp/storage")),
		storage.WithDatabase(cfg.MongoDB.Database),
		storage.WithAppName(cfg.MongoDB.AppName),
		storage.WithConnectTimeout(cfg.MongoDB.ConnectTimeout),
		storage.WithServerSelectionTimeout(cfg.MongoDB.ServerSelectionTimeout),
		storage.WithMaxPoolSize(cfg.MongoDB.MaxPoolSize),
	}
	return storage.InitGlobalConnection(cfg.MongoDB.URI, append(base, opts...)...)
}

// ConnectDatabase runs the bootstrap handshake and applies the startup policy.
//
// In strict mode a failure is logged with remediation text and the process exits
// with status 1. In graceful mode the failure is logged and returned, and the
// connection stays in the failed state so readiness reports it.
func ConnectDatabase(ctx context.Context, conn *storage.Connection, mode config.StartupMode, sugar *zap.SugaredLogger) (*storage.MongoDB, error) {
	db, err := conn.EnsureConnected(ctx)
	if err == nil {
		return db, nil
	}

	if mode == config.StartupModeGraceful {
		sugar.Warnw("Continuing without MongoDB",
			"state", conn.State().String(),
			"endpoint", conn.RedactedEndpoint(),
			"error", util.SanitizeError(err))
		return nil, err
	}

	sugar.Errorf("FATAL: MongoDB bootstrap failed\n%s", ClassifyConnectionError(err, conn.RedactedEndpoint()))
	exitFunc(1)
	return nil, err
}
