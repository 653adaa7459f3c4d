package mssql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	mssql "github.com/microsoft/go-mssqldb"

	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
)

// TestMSSQLStorageRegistrationUsesNewRepositoryHook verifies that the "mssql"
// storage backend registered in init() uses the newRepository hook and that
// the wrappedRepo correctly propagates configuration and close behavior.
func TestMSSQLStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	// Save and restore global hook.
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called   bool
		gotCfg   Config
		closed   bool
		fakeRepo = &Repository{}
	)

	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	cfg := storage.Config{Kind: "mssql", DSN: "sqlserver://example"}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v, want nil", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != cfg.DSN {
		t.Errorf("hook cfg.DSN = %q, want %q", gotCfg.DSN, cfg.DSN)
	}

	wr, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() returned %T, want *wrappedRepo", repo)
	}
	if wr.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", wr.Repository, fakeRepo)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !closed {
		t.Fatalf("Close() did not invoke the close function")
	}
}

func TestMSSQLStorageRegistrationPropagatesErrors(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	wantErr := errors.New("login failed")
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return nil, nil, wantErr
	}

	if _, err := storage.New(context.Background(), storage.Config{Kind: "mssql"}); !errors.Is(err, wantErr) {
		t.Fatalf("storage.New() error = %v, want %v", err, wantErr)
	}
}

func TestNewRepository_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host?connection+timeout=notanumber"})
	if err == nil || !strings.Contains(err.Error(), "mssql dsn") {
		t.Fatalf("NewRepository() error = %v, want dsn error", err)
	}
}

func TestDDLRegistered(t *testing.T) {
	t.Parallel()

	got, err := storage.CreateTableSQL("mssql", "raw", "events", []schema.Field{
		{Name: "id", Type: "integer", Mode: schema.ModeRequired},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.HasPrefix(got, "CREATE TABLE [raw].[events]") {
		t.Fatalf("unexpected DDL %q", got)
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	exists := fmt.Errorf("exec: %w", mssql.Error{Number: errObjectExists, Message: "There is already an object named 'events'"})
	if res, err := ensureResult(exists); err != nil || res != storage.AlreadyExists {
		t.Fatalf("ensureResult(2714) = %v, %v", res, err)
	}
	if res, err := ensureResult(nil); err != nil || res != storage.Created {
		t.Fatalf("ensureResult(nil) = %v, %v", res, err)
	}
	other := mssql.Error{Number: 262, Message: "CREATE TABLE permission denied"}
	if _, err := ensureResult(other); err == nil {
		t.Fatalf("ensureResult(262) should fail")
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not null", mssql.Error{Number: 515}, true},
		{"duplicate key", fmt.Errorf("wrapped: %w", mssql.Error{Number: 2627}), true},
		{"conversion", mssql.Error{Number: 245}, true},
		{"permission", mssql.Error{Number: 229}, false},
		{"plain", errors.New("broken pipe"), false},
	}
	for _, tt := range tests {
		if got := isRowError(tt.err); got != tt.want {
			t.Errorf("%s: isRowError = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	if got := placeholder(3); got != "@p3" {
		t.Fatalf("placeholder(3) = %q", got)
	}
}

func TestBatchInsert_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	rowErrs, err := r.BatchInsert(context.Background(), "raw", "events", nil, nil)
	if err != nil || rowErrs != nil {
		t.Fatalf("BatchInsert(empty) = %v, %v", rowErrs, err)
	}
}
