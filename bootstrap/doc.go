// Package bootstrap provides application initialization and lifecycle management.
// It owns the startup order: configuration, logging, the shared MongoDB connection,
// and the health server. Whether a failed database bootstrap terminates the process
// is decided here, never inside storage.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
//
//	if err := app.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Wait for shutdown signal
//	app.WaitForShutdown(ctx)
package bootstrap
