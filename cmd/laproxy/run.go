package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"laproxy/pkg/cli"
	"laproxy/pkg/config"
	"laproxy/pkg/judge"
	"laproxy/pkg/proxy"
	"laproxy/pkg/proxy/handlers"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start every configured proxy instance",
	Long: `Start the laproxy dataplane: one TCPProxy per configured listen/target
pairing, each running the handler its "mode" selects (raw, line, http,
or smart). Smart-mode instances each get their own Judge, sharing the
process-wide updater endpoint and flag regex but presenting their own
service id to the backend (the listen port unless service_id is set).

Examples:
  # Start with a config file
  laproxy run --config /path/to/config.yaml

  # Validate config without starting any proxy
  laproxy run --dry-run`,
	RunE: runProxies,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting any proxy")
}

func runProxies(cmd *cobra.Command, args []string) error {
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
	if len(cfg.Proxies) == 0 {
		return cli.NewConfigError("proxies", "at least one proxy instance must be configured")
	}

	ctx := cli.SetupSignalHandler()
	go func() {
		if err := config.WatchAndReload(ctx, cfgFile); err != nil {
			slog.Warn("config watcher stopped", "error", err)
		}
	}()

	var wg sync.WaitGroup
	errs := make(chan error, len(cfg.Proxies))

	for _, instance := range cfg.Proxies {
		factory, startJudge, err := buildFactory(instance, cfg.Judge)
		if err != nil {
			return fmt.Errorf("proxy %s: %w", instance.ServiceID, err)
		}

		p := proxy.NewTCPProxy(instance.ListenAddress, instance.ListenPort, instance.TargetAddress, instance.TargetPort, factory)

		wg.Add(1)
		go func(p *proxy.TCPProxy) {
			defer wg.Done()
			if err := p.Run(ctx); err != nil {
				errs <- err
			}
		}(p)

		if startJudge != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := startJudge(ctx); err != nil {
					errs <- err
				}
			}()
		}
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// buildFactory returns the proxy.ConnFactory for one configured
// instance and, for smart mode, the Judge's own update loop starter
// (nil otherwise).
func buildFactory(instance config.ProxyInstance, judgeCfg config.JudgeConfig) (proxy.ConnFactory, func(context.Context) error, error) {
	switch instance.Mode {
	case config.ModeLine:
		return func() proxy.ConnHandler {
			return proxy.NewRawLoop(proxy.NewLineHandler(handlers.NoLine{}))
		}, nil, nil

	case config.ModeHTTP:
		return func() proxy.ConnHandler {
			return handlers.NewHTTP(handlers.NoHTTP{})
		}, nil, nil

	case config.ModeSmart:
		flagRegex, err := judgeCfg.CompiledFlagRegex()
		if err != nil {
			return nil, nil, fmt.Errorf("compile flag regex: %w", err)
		}
		j := judge.New(judge.Config{
			UpdaterHost:   judgeCfg.UpdaterHost,
			UpdaterPort:   judgeCfg.UpdaterPort,
			ServiceID:     instance.ServiceID,
			FlagRegex:     flagRegex,
			PushInterval:  judgeCfg.PushInterval,
			UpdateTimeout: judgeCfg.UpdateTimeout,
		})
		factory := func() proxy.ConnHandler {
			return proxy.NewRawLoop(handlers.NewSmartTCP(j))
		}
		return factory, j.Start, nil

	case config.ModeRaw, "":
		return func() proxy.ConnHandler {
			return proxy.NewRawLoop(handlers.NewNoop())
		}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown proxy mode %q", instance.Mode)
	}
}
