// Package service runs one rebalancing pass over a loot table: load, walk,
// save, audit, package and report metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/lootscale/internal/adapters/audit"
	"github.com/okian/lootscale/internal/adapters/store"
	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/record"
	"github.com/okian/lootscale/internal/domain/transform"
	"github.com/okian/lootscale/internal/domain/walker"
	"github.com/okian/lootscale/pkg/logger"
	"github.com/okian/lootscale/pkg/metrics"
)

// ErrMissingDependency is returned by New when a required component is unset.
var ErrMissingDependency = errors.New("missing service dependency")

// Packer bundles the output directory into an archive.
type Packer interface {
	Pack(ctx context.Context, outputDir string) (string, error)
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Report   *walker.Report
	Output   string
	Pak      string
	DryRun   bool
	Duration time.Duration
}

// Service wires the engine to its adapters.
type Service struct {
	store       store.Store
	transformer *transform.Transformer
	paths       store.Paths
	table       string

	workers  int
	dryRun   bool
	sink     audit.Sink
	packer   Packer
	textfile string

	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. Required.
func WithStore(s store.Store) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// WithTransformer sets the row transformer. Required.
func WithTransformer(t *transform.Transformer) Option {
	return func(svc *Service) {
		svc.transformer = t
	}
}

// WithPaths describes where the table is read from and written to.
func WithPaths(p store.Paths, table string) Option {
	return func(svc *Service) {
		svc.paths = p
		svc.table = table
	}
}

// WithWorkers sets the walker's goroutine count.
func WithWorkers(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.workers = n
		}
	}
}

// WithDryRun transforms and reports without writing or packaging.
func WithDryRun(dryRun bool) Option {
	return func(svc *Service) {
		svc.dryRun = dryRun
	}
}

// WithAuditSink records every run.
func WithAuditSink(sink audit.Sink) Option {
	return func(svc *Service) {
		svc.sink = sink
	}
}

// WithPacker packages the output root after saving.
func WithPacker(p Packer) Option {
	return func(svc *Service) {
		svc.packer = p
	}
}

// WithMetricsTextfile writes metrics to path after each run.
func WithMetricsTextfile(path string) Option {
	return func(svc *Service) {
		svc.textfile = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New constructs a Service. A store and a transformer are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workers: 1,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	}
	if s.transformer == nil {
		return nil, fmt.Errorf("%w: transformer", ErrMissingDependency)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s, nil
}

// Run performs one pass. Nothing is written unless every record transformed
// successfully.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	started := s.now()
	res := &Result{RunID: s.newID(), DryRun: s.dryRun}
	log := s.logger.With(logger.String("run_id", res.RunID))

	log.Info(ctx, "run started",
		logger.String("table", s.table),
		logger.String("input", s.paths.Input()),
		logger.Bool("dry_run", s.dryRun),
		logger.Int("workers", s.workers))
	s.logSettings(ctx, log)

	stage := s.now()
	table, err := s.store.Load(ctx)
	if err != nil {
		metrics.RecordError("load")
		return nil, fmt.Errorf("load table: %w", err)
	}
	metrics.ObserveStage("load", s.now().Sub(stage))

	stage = s.now()
	w := walker.New(s.transformer, walker.WithWorkers(s.workers), walker.WithLogger(log.Named("walker")))
	report, err := w.Walk(ctx, table)
	if err != nil {
		metrics.RecordError("transform")
		var rowErr *transform.RowError
		if errors.As(err, &rowErr) {
			log.Error(ctx, "aborting: record could not be transformed",
				logger.Int("row", rowErr.Index),
				logger.String("name", rowErr.Row),
				logger.String("item_id", rowErr.ItemID),
				logger.String("context", rowErr.Context),
				logger.String("field", rowErr.Field),
				logger.Error(rowErr.Err))
		}
		return nil, fmt.Errorf("transform table: %w", err)
	}
	metrics.ObserveStage("transform", s.now().Sub(stage))
	res.Report = report
	s.recordReport(ctx, log, report)

	if !s.dryRun {
		stage = s.now()
		if err := s.store.Save(ctx, table); err != nil {
			metrics.RecordError("save")
			return nil, fmt.Errorf("save table: %w", err)
		}
		metrics.ObserveStage("save", s.now().Sub(stage))
		res.Output = s.paths.Output()
	}

	if s.sink != nil {
		if err := s.sink.RecordRun(ctx, s.auditRun(res, table, started), report.Entries); err != nil {
			metrics.RecordError("audit")
			return nil, fmt.Errorf("record audit: %w", err)
		}
	}

	if s.packer != nil && !s.dryRun {
		log.Info(ctx, "automatic packaging enabled")
		stage = s.now()
		pak, err := s.packer.Pack(ctx, s.paths.Root())
		if err != nil {
			metrics.RecordError("package")
			return nil, fmt.Errorf("package output: %w", err)
		}
		metrics.ObserveStage("package", s.now().Sub(stage))
		res.Pak = pak
	}

	finished := s.now()
	res.Duration = finished.Sub(started)
	metrics.ObserveStage("total", res.Duration)
	metrics.MarkRun(finished, table.Len())
	if s.textfile != "" {
		if err := metrics.WriteTextfile(s.textfile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}

	log.Info(ctx, "run finished",
		logger.Int("rows", report.Rows),
		logger.Int("weight", report.Weight),
		logger.Int("quantity", report.Quantity),
		logger.Int("skipped", report.Skipped),
		logger.Int("excluded", report.Excluded),
		logger.String("output", res.Output),
		logger.String("pak", res.Pak),
		logger.Duration("duration", res.Duration))
	return res, nil
}

func (s *Service) logSettings(ctx context.Context, log logger.Logger) {
	st := s.transformer.Settings()
	log.Info(ctx, "multipliers",
		logger.Float64("cash", st.CurrencyMultiplier),
		logger.Float64("expedition", st.ExpeditionMultiplier),
		logger.Float64("weight", st.WeightMultiplier),
		logger.Int64("soft_cap", st.SoftCap),
		logger.Float64("min_weight", st.MinWeight),
		logger.Int64("cash_chunk", st.ChunkSize))
}

// recordReport logs each entry and feeds the counters.
func (s *Service) recordReport(ctx context.Context, log logger.Logger, report *walker.Report) {
	for _, e := range report.Entries {
		log.Info(ctx, e.String(),
			logger.Int("row", e.Index),
			logger.String("name", e.Row),
			logger.String("item_id", e.ItemID),
			logger.String("context", e.Context))
		for _, c := range e.Changes {
			metrics.RecordFieldChange(c.Field, c.Adjustment.String())
		}
	}
	metrics.RecordRows(classify.WeightAdjustment.String(), report.Weight)
	metrics.RecordRows(classify.QuantityAdjustment.String(), report.Quantity)
	metrics.RecordRows(classify.Skip.String(), report.Skipped-report.Excluded)
	metrics.RecordRows("excluded", report.Excluded)
}

func (s *Service) auditRun(res *Result, table *record.Table, started time.Time) audit.Run {
	return audit.Run{
		ID:         res.RunID,
		Table:      table.Name,
		Input:      s.paths.Input(),
		Output:     res.Output,
		DryRun:     s.dryRun,
		Settings:   s.transformer.Settings(),
		Rows:       res.Report.Rows,
		Weight:     res.Report.Weight,
		Quantity:   res.Report.Quantity,
		Skipped:    res.Report.Skipped,
		Excluded:   res.Report.Excluded,
		StartedAt:  started,
		FinishedAt: s.now(),
	}
}
