package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/lootscale/internal/adapters/audit"
	"github.com/okian/lootscale/internal/adapters/packager"
	"github.com/okian/lootscale/internal/adapters/store"
	app "github.com/okian/lootscale/internal/app"
	"github.com/okian/lootscale/internal/config"
	"github.com/okian/lootscale/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			os.Stderr.WriteString("lootscale: " + err.Error() + "\n")
		}
		stop()
		os.Exit(1)
	}
}

// run parses flags, loads configuration and performs one rebalancing pass.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lootscale", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "Config file (YAML or JSON); defaults to $LOOTSCALE_CONFIG")
		dryRun     = fs.Bool("dry-run", false, "Transform and report without writing output or packaging")
		workers    = fs.Int("workers", 0, "Walk the table with this many goroutines (overrides config)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return err
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	warnings, err := cfg.Validate()
	if err != nil {
		log.Error(ctx, "invalid configuration", logger.Error(err))
		return err
	}
	for _, w := range warnings {
		log.Warn(ctx, w)
	}

	tr, err := cfg.Transformer()
	if err != nil {
		return err
	}

	paths := store.Paths{
		ExportsDir: cfg.ExportsDir,
		AssetPath:  cfg.AssetPath,
		AssetName:  cfg.AssetName,
		OutputDir:  cfg.OutputDir,
	}
	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store.New(paths, cfg.TableName, store.WithEngineVersion(cfg.EngineVersion))),
		app.WithTransformer(tr),
		app.WithPaths(paths, cfg.TableName),
		app.WithWorkers(cfg.Workers),
		app.WithDryRun(cfg.DryRun),
		app.WithMetricsTextfile(cfg.MetricsTextfile),
	}

	if cfg.AuditDB != "" {
		sink, err := audit.Open(cfg.AuditDB)
		if err != nil {
			log.Error(ctx, "failed to open audit database", logger.String("path", cfg.AuditDB), logger.Error(err))
			return err
		}
		defer func() { _ = sink.Close() }()
		opts = append(opts, app.WithAuditSink(sink))
	}

	if cfg.DoUnrealPak {
		p, err := packager.New(cfg.UnrealPakDir)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithPacker(p))
	}

	svc, err := app.New(opts...)
	if err != nil {
		return err
	}
	if _, err := svc.Run(ctx); err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		return err
	}
	return nil
}
