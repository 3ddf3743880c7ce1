// Package store loads a loot table from an asset export document and writes
// the rewritten table to the staged output location.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/lootscale/internal/domain/record"
	"github.com/okian/lootscale/pkg/logger"
)

// Store reads and writes one loot table.
type Store interface {
	Load(ctx context.Context) (*record.Table, error)
	Save(ctx context.Context, t *record.Table) error
}

// Option applies a configuration option to the JSONStore.
type Option func(*JSONStore)

// WithEngineVersion requires the document's engine version to match.
func WithEngineVersion(version string) Option {
	return func(s *JSONStore) {
		s.engineVersion = version
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *JSONStore) {
		if l != nil {
			s.log = l
		}
	}
}

// JSONStore is a Store over a JSON export document. Save rewrites only the
// selected table's rows; every other export is written back untouched.
type JSONStore struct {
	paths         Paths
	table         string
	engineVersion string
	log           logger.Logger

	mu   sync.Mutex
	doc  *rawDocument
	idx  int
	rows []Row
}

// New creates a JSONStore for the named data table export.
func New(paths Paths, table string, opts ...Option) *JSONStore {
	s := &JSONStore{
		paths: paths,
		table: table,
		log:   logger.Get().Named("store"),
		idx:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the input document and decodes the configured table.
func (s *JSONStore) Load(ctx context.Context) (*record.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := s.paths.Input()
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	doc, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	version, err := doc.engineVersion()
	if err != nil {
		return nil, err
	}
	if s.engineVersion != "" && version != "" && version != s.engineVersion {
		return nil, fmt.Errorf("%w: document %s, configured %s", ErrEngineMismatch, version, s.engineVersion)
	}

	i, class, err := doc.find(s.table)
	if err != nil {
		return nil, err
	}
	if class != DataTableClass {
		return nil, fmt.Errorf("%w: %q has class %q", ErrNotDataTable, s.table, class)
	}
	rows, err := doc.rows(i)
	if err != nil {
		return nil, err
	}

	t := &record.Table{Name: s.table, Records: make([]*record.Record, 0, len(rows))}
	for _, row := range rows {
		r, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, r)
	}

	s.mu.Lock()
	s.doc, s.idx, s.rows = doc, i, rows
	s.mu.Unlock()

	s.log.Info(ctx, "table loaded",
		logger.String("path", in),
		logger.String("table", s.table),
		logger.Int("rows", len(t.Records)))
	return t, nil
}

// Save encodes t into the loaded document and writes it atomically to the
// staged output path.
func (s *JSONStore) Save(ctx context.Context, t *record.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidDocument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}

	rows := make([]Row, 0, len(t.Records))
	for i, r := range t.Records {
		var orig *Row
		if i < len(s.rows) && s.rows[i].Name == r.Name {
			orig = &s.rows[i]
		}
		row, err := encodeRow(r, orig)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := s.doc.setRows(s.idx, rows); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	data, err := s.doc.encode()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	out, err := s.paths.Stage()
	if err != nil {
		return err
	}
	if err := writeAtomic(out, data); err != nil {
		return err
	}
	s.log.Info(ctx, "table written", logger.String("path", out), logger.Int("rows", len(rows)))
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
