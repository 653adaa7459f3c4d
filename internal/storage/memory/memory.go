// Package memory is an in-process storage backend. It keeps datasets,
// tables and inserted rows in maps and honors the same idempotent-create
// contract as the real stores, which makes it the backend of choice for
// tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
)

// Rejector decides whether a row is refused. A non-empty reason turns the
// row into a RowError.
type Rejector func(dataset, table string, index int, row storage.Row) string

// Table is a created table and the rows it accepted.
type Table struct {
	Fields []schema.Field
	Rows   []storage.Row
}

// Store implements storage.Backend.
type Store struct {
	mu       sync.Mutex
	datasets map[string]bool
	tables   map[string]*Table
	reject   Rejector
	calls    []string
	closed   bool
}

var _ storage.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		datasets: make(map[string]bool),
		tables:   make(map[string]*Table),
	}
}

// SetRejector installs fn for subsequent inserts.
func (s *Store) SetRejector(fn Rejector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = fn
}

func key(dataset, table string) string { return dataset + "." + table }

func (s *Store) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.Created, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "dataset:"+dataset)
	if s.datasets[dataset] {
		return storage.AlreadyExists, nil
	}
	s.datasets[dataset] = true
	return storage.Created, nil
}

func (s *Store) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.Created, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "table:"+key(dataset, table))
	if !s.datasets[dataset] {
		return storage.Created, fmt.Errorf("memory: dataset %q not found", dataset)
	}
	if _, ok := s.tables[key(dataset, table)]; ok {
		return storage.AlreadyExists, nil
	}
	s.tables[key(dataset, table)] = &Table{Fields: append([]schema.Field(nil), fields...)}
	return storage.Created, nil
}

func (s *Store) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "insert:"+key(dataset, table))
	t, ok := s.tables[key(dataset, table)]
	if !ok {
		return nil, fmt.Errorf("memory: table %q not found", key(dataset, table))
	}

	var rowErrs []storage.RowError
	for i, r := range rows {
		if s.reject != nil {
			if reason := s.reject(dataset, table, i, r); reason != "" {
				rowErrs = append(rowErrs, storage.RowError{Index: i, Reason: reason})
				continue
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return rowErrs, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Table returns a snapshot of dataset.table.
func (s *Store) Table(dataset, table string) (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(dataset, table)]
	if !ok {
		return Table{}, false
	}
	return Table{
		Fields: append([]schema.Field(nil), t.Fields...),
		Rows:   append([]storage.Row(nil), t.Rows...),
	}, true
}

// HasDataset reports whether dataset was created.
func (s *Store) HasDataset(dataset string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasets[dataset]
}

// Calls lists every backend call in order, as "dataset:<d>", "table:<d.t>"
// or "insert:<d.t>".
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// shared is what storage.New hands out for kind "memory", so a process can
// inspect what a run loaded.
var shared = New()

// Shared returns the store backing kind "memory".
func Shared() *Store { return shared }

func init() {
	storage.Register("memory", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return Shared(), nil
	})
}
