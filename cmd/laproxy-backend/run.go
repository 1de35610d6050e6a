package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"laproxy/pkg/backend"
	"laproxy/pkg/cli"
	"laproxy/pkg/config"
	"laproxy/pkg/control"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the learning backend",
	Long: `Start the laproxy-backend server: it listens for Judge update
pushes, persists per-service observations, runs the periodic refit
loop, and drives an operator control surface over stdin.

Examples:
  # Start with a config file
  laproxy-backend run --config /path/to/config.yaml

  # Validate config without starting the server
  laproxy-backend run --dry-run`,
	RunE: runBackend,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runBackend(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	level, lerr := cli.ParseLevel(cfg.Logging.Level)
	if lerr != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	metrics := backend.NewMetrics()
	b := backend.New(backend.Config{
		ListenAddress:  cfg.Backend.ListenAddress,
		ListenPort:     cfg.Backend.ListenPort,
		DataDir:        cfg.Backend.DataDir,
		RefitInterval:  cfg.Backend.RefitInterval,
		RequestTimeout: cfg.Backend.RequestTimeout,
		Metrics:        metrics,
	})

	ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
	defer cancel()

	go func() {
		if err := config.WatchAndReload(ctx, cfgFile); err != nil {
			slog.Warn("config watcher stopped", "error", err)
		}
	}()

	if cfg.Backend.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.Backend.MetricsAddress, Handler: mux}
		go func() {
			slog.Info("serving metrics", "address", cfg.Backend.MetricsAddress)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = metricsServer.Close()
		}()
	}

	interp := control.New(b, cancel)
	go func() { _ = control.Run(interp, os.Stdin, os.Stdout) }()

	return b.Run(ctx)
}
