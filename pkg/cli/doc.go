/*
Package cli provides command-line interface utilities shared by the
laproxy and laproxy-backend commands: typed config errors, a shared
log-level parser, and graceful-shutdown signal handling.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown

Log Levels:

	level, err := cli.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
*/
package cli
