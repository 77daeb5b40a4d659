package cmd

import (
	"context"
	"fmt"

	"streamingapp/bootstrap"

	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' subcommand
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to MongoDB and serve until interrupted",
		Long: `Connect to MongoDB and serve health, readiness and metrics until SIGINT or SIGTERM.

In strict startup mode (the default) the process exits with status 1 when MongoDB cannot
be reached. In graceful mode it keeps running and /health/ready reports the failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe initializes and runs the application until a shutdown signal.
func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := bootstrap.NewApp(ctx, configFile)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown(ctx)
	app.Shutdown()
	return nil
}
