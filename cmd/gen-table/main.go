package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/lootscale/internal/tablegen"
	"github.com/okian/lootscale/pkg/logger"
)

const defaultTimeout = 2 * time.Minute

func main() {
	defaults := tablegen.DefaultConfig()
	var (
		rows    = flag.Int("rows", defaults.Rows, "Number of rows to generate")
		table   = flag.String("table", defaults.Table, "Data table export name")
		engine  = flag.String("engine", defaults.EngineVersion, "Engine version stamped on the document")
		workers = flag.Int("workers", defaults.Workers, "Number of concurrent generators")
		uuids   = flag.Bool("uuid", false, "Name rows with UUIDs instead of sequence numbers")
		output  = flag.String("output", defaults.Output, "Output file")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		tablegen.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := tablegen.Config{
		Rows:          *rows,
		Table:         *table,
		EngineVersion: *engine,
		Workers:       *workers,
		UUIDNames:     *uuids,
		Output:        *output,
	}
	doc, stats, err := tablegen.Generate(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
	if err := tablegen.Write(cfg.Output, doc); err != nil {
		os.Stderr.WriteString("Write failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
	logger.Get().Info(ctx, "table written",
		logger.String("path", cfg.Output),
		logger.Int("currency", stats.Currency),
		logger.Int("expedition", stats.Expedition),
		logger.Int("excluded", stats.Excluded),
		logger.Int("blueprint", stats.Blueprint),
		logger.Int("unrelated", stats.Unrelated))
}
