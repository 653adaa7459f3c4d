// Package storage contains the backend-agnostic contract the loader talks to
// and the registry concrete backends plug themselves into.
//
// Backends register a Factory for their kind from an init function; callers
// obtain one with New and never import a backend package directly. Importing
// bqtarget/internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bqtarget/internal/schema"
)

// EnsureResult reports what an idempotent create did.
type EnsureResult int

const (
	Created EnsureResult = iota
	AlreadyExists
)

func (r EnsureResult) String() string {
	if r == AlreadyExists {
		return "already_exists"
	}
	return "created"
}

// Row is one buffered record keyed by column name.
type Row = map[string]any

// RowError is a per-row rejection reported by an otherwise successful batch
// insert. Index is the 0-based position of the row in the submitted batch.
type RowError struct {
	Index  int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// Backend is a destination store.
//
// EnsureDataset and EnsureTable must treat an existing object as success
// and report AlreadyExists. BatchInsert submits every row in one request;
// rows the store rejects individually come back as RowErrors while the error
// return is reserved for failures of the request as a whole.
type Backend interface {
	EnsureDataset(ctx context.Context, dataset string) (EnsureResult, error)
	EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (EnsureResult, error)
	BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []Row) ([]RowError, error)
	Close() error
}

// Config carries everything a backend factory may need. Each backend reads
// only the fields relevant to it.
type Config struct {
	Kind string

	// SQL backends.
	DSN string

	// BigQuery.
	ProjectID       string
	Location        string
	CredentialsPath string

	// RunID seeds deterministic per-row insert identifiers.
	RunID string

	InsertTimeout time.Duration
}

// Factory opens a Backend for cfg.
type Factory func(ctx context.Context, cfg Config) (Backend, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Backend, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	b, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Kind, err)
	}
	return b, nil
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
