// Package audit persists every run and its change report in SQLite.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/lootscale/internal/adapters/audit/migrations"
	"github.com/okian/lootscale/internal/domain/record"
	"github.com/okian/lootscale/internal/domain/transform"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Sentinel kinds for audit errors.
var (
	ErrPathRequired = errors.New("audit database path is required")
	ErrRunNotFound  = errors.New("run not found")
	ErrInvalidRun   = errors.New("invalid run")
)

// Run describes one engine pass.
type Run struct {
	ID         string
	Table      string
	Input      string
	Output     string
	DryRun     bool
	Settings   transform.Settings
	Rows       int
	Weight     int
	Quantity   int
	Skipped    int
	Excluded   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Change is one persisted field change.
type Change struct {
	RunID          string
	Index          int
	Row            string
	ItemID         string
	Context        string
	Classification string
	Expedition     bool
	Field          string
	Kind           string
	Old            string
	New            string
	Adjustment     string
}

// Sink records runs.
type Sink interface {
	RecordRun(ctx context.Context, run Run, entries []transform.Entry) error
}

// Store is a SQLite-backed Sink.
type Store struct {
	db *sql.DB
}

// Open opens the audit database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores run and every field change of entries in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, entries []transform.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRun)
	}
	started, finished := run.StartedAt.UTC(), run.FinishedAt.UTC()
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	if started.IsZero() {
		started = finished
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
		   id, table_name, input_path, output_path, dry_run,
		   currency_multiplier, expedition_multiplier, weight_multiplier,
		   soft_cap, min_weight, chunk_size,
		   rows_total, rows_weight, rows_quantity, rows_skipped, rows_excluded,
		   started_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Table, run.Input, run.Output, run.DryRun,
		run.Settings.CurrencyMultiplier, run.Settings.ExpeditionMultiplier, run.Settings.WeightMultiplier,
		run.Settings.SoftCap, run.Settings.MinWeight, run.Settings.ChunkSize,
		run.Rows, run.Weight, run.Quantity, run.Skipped, run.Excluded,
		started.UnixMilli(), finished.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO changes (
		   run_id, row_index, row_name, item_id, context, classification, expedition,
		   field, kind, old_value, new_value, adjustment
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare change insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		for _, c := range e.Changes {
			if _, err := stmt.ExecContext(ctx,
				run.ID, e.Index, e.Row, e.ItemID, e.Context,
				e.Classification.Kind.String(), e.Classification.Expedition,
				c.Field, c.New.Kind().String(), valueText(c.Old), valueText(c.New), c.Adjustment.String(),
			); err != nil {
				return fmt.Errorf("insert change row %d field %s: %w", e.Index, c.Field, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit transaction: %w", err)
	}
	return nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, table_name, input_path, output_path, dry_run,
		        currency_multiplier, expedition_multiplier, weight_multiplier,
		        soft_cap, min_weight, chunk_size,
		        rows_total, rows_weight, rows_quantity, rows_skipped, rows_excluded,
		        started_at, finished_at
		   FROM runs
		  ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
		)
		if err := rows.Scan(
			&r.ID, &r.Table, &r.Input, &r.Output, &r.DryRun,
			&r.Settings.CurrencyMultiplier, &r.Settings.ExpeditionMultiplier, &r.Settings.WeightMultiplier,
			&r.Settings.SoftCap, &r.Settings.MinWeight, &r.Settings.ChunkSize,
			&r.Rows, &r.Weight, &r.Quantity, &r.Skipped, &r.Excluded,
			&started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Changes returns the field changes of one run in row order.
func (s *Store) Changes(ctx context.Context, runID string) ([]Change, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return nil, fmt.Errorf("check run: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, row_index, row_name, item_id, context, classification, expedition,
		        field, kind, old_value, new_value, adjustment
		   FROM changes
		  WHERE run_id = ?
		  ORDER BY row_index, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(
			&c.RunID, &c.Index, &c.Row, &c.ItemID, &c.Context, &c.Classification, &c.Expedition,
			&c.Field, &c.Kind, &c.Old, &c.New, &c.Adjustment,
		); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return out, nil
}

// valueText renders v without losing precision.
func valueText(v record.Value) string {
	switch v.Kind() {
	case record.KindInteger:
		i, _ := v.Int()
		return strconv.FormatInt(i, 10)
	case record.KindSingle:
		f, _ := v.Single()
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	case record.KindDouble:
		f, _ := v.Double()
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		s, _ := v.Symbol()
		return s
	}
}
