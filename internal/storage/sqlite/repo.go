// Package sqlite implements a SQLite storage backend using database/sql and
// the pure-Go modernc driver. Datasets are recorded in a registry table and
// tables are stored as "<dataset>.<table>". Inserts run row by row inside
// one transaction; a constraint failure aborts only its own statement, so
// it becomes a per-row error while the rest of the batch commits.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
	sqliteddl "bqtarget/internal/storage/sqlite/ddl"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:target.db?_pragma=busy_timeout(5000)"
	//   "target.db"
	DSN string
}

// Repository is a SQLite-backed storage.Backend minus Close.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

func (r *Repository) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	if _, err := r.db.ExecContext(ctx, sqliteddl.CreateDatasetsTableSQL); err != nil {
		return storage.Created, fmt.Errorf("sqlite: dataset registry: %w", err)
	}
	res, err := r.db.ExecContext(ctx, sqliteddl.RegisterDatasetSQL, dataset)
	if err != nil {
		return storage.Created, fmt.Errorf("sqlite: register dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Created, fmt.Errorf("sqlite: register dataset: %w", err)
	}
	if n == 0 {
		return storage.AlreadyExists, nil
	}
	return storage.Created, nil
}

func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	stmt, err := sqliteddl.BuildCreateTableSQL(dataset, table, fields)
	if err != nil {
		return storage.Created, err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		if isAlreadyExists(err) {
			return storage.AlreadyExists, nil
		}
		return storage.Created, fmt.Errorf("sqlite: create table: %w", err)
	}
	return storage.Created, nil
}

func (r *Repository) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	insert := sqliteddl.Dialect.InsertSQL(sqliteddl.TableDef(dataset, table, fields), func(int) string { return "?" })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var rowErrs []storage.RowError
	for i, row := range rows {
		args := gddl.Values(fields, row, gddl.ValueOptions{})
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isRowError(err) {
				rowErrs = append(rowErrs, storage.RowError{Index: i, Reason: err.Error()})
				continue
			}
			_ = tx.Rollback()
			return nil, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", err)
	}
	return rowErrs, nil
}

// isRowError reports constraint and datatype failures of a single statement.
func isRowError(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH:
		return true
	}
	return false
}

// isAlreadyExists matches SQLite's "table ... already exists" error. SQLite
// reports it as a generic SQLITE_ERROR, so the message is the only signal.
func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
