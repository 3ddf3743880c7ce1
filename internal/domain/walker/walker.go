// Package walker runs the row transformer over every record of a table and
// aggregates the change report.
package walker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/record"
	"github.com/okian/lootscale/internal/domain/transform"
	"github.com/okian/lootscale/pkg/logger"
)

// Applier transforms one record in place.
type Applier interface {
	Apply(index int, r *record.Record) (transform.Result, error)
}

// Report aggregates a table pass.
type Report struct {
	Entries  []transform.Entry
	Rows     int
	Weight   int
	Quantity int
	Skipped  int
	Excluded int
}

func (r *Report) add(res transform.Result) {
	r.Rows++
	switch res.Classification.Kind {
	case classify.WeightAdjustment:
		r.Weight++
	case classify.QuantityAdjustment:
		r.Quantity++
	default:
		r.Skipped++
		if res.Classification.Excluded {
			r.Excluded++
		}
	}
	if res.Entry != nil {
		r.Entries = append(r.Entries, *res.Entry)
	}
}

// Option applies a configuration option to the Walker.
type Option func(*Walker)

// WithWorkers spreads records over n goroutines. Values below 2 keep the
// walk sequential.
func WithWorkers(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithLogger sets a custom logger for the walker.
func WithLogger(l logger.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Walker iterates a table in input order. Records are never reordered or
// dropped; untouched records are left exactly as they were.
type Walker struct {
	applier Applier
	workers int
	logger  logger.Logger
}

// New creates a Walker around applier.
func New(applier Applier, opts ...Option) *Walker {
	w := &Walker{
		applier: applier,
		workers: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("walker")
	}
	return w
}

// Walk transforms every record of t and returns the report. It stops at the
// first failing record; the returned error identifies that record. On error
// the table may be partially transformed and must not be persisted.
func (w *Walker) Walk(ctx context.Context, t *record.Table) (*Report, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	if w.workers > 1 && len(t.Records) > 1 {
		return w.walkParallel(ctx, t)
	}

	report := &Report{}
	for i, r := range t.Records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("walk interrupted at row %d: %w", i, err)
		}
		res, err := w.applier.Apply(i, r)
		if err != nil {
			w.logger.Error(ctx, "row transformation failed", logger.Int("row", i), logger.String("name", r.Name), logger.Error(err))
			return nil, err
		}
		w.trace(ctx, i, r, res)
		report.add(res)
	}
	return report, nil
}

// walkParallel fans records out to the worker goroutines. Each record is
// owned by exactly one worker; results are assembled in input order so the
// report matches the sequential walk.
func (w *Walker) walkParallel(ctx context.Context, t *record.Table) (*Report, error) {
	n := len(t.Records)
	results := make([]transform.Result, n)
	errs := make([]error, n)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indices := make(chan int)
	var wg sync.WaitGroup
	for range min(w.workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i], errs[i] = w.applier.Apply(i, t.Records[i])
				if errs[i] != nil {
					cancel()
				}
			}
		}()
	}

	fed := n
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			fed = i
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	report := &Report{}
	for i := 0; i < fed; i++ {
		if errs[i] != nil {
			w.logger.Error(ctx, "row transformation failed", logger.Int("row", i), logger.String("name", t.Records[i].Name), logger.Error(errs[i]))
			return nil, errs[i]
		}
		w.trace(ctx, i, t.Records[i], results[i])
		report.add(results[i])
	}
	if fed < n {
		return nil, fmt.Errorf("walk interrupted at row %d: %w", fed, context.Cause(ctx))
	}
	return report, nil
}

func (w *Walker) trace(ctx context.Context, i int, r *record.Record, res transform.Result) {
	if res.Classification.Excluded {
		w.logger.Debug(ctx, "row skipped by exclusion prefix", logger.Int("row", i), logger.String("name", r.Name))
	}
}
