// Package postgres implements a Postgres storage backend using pgx v5.
// A dataset maps to a schema. Rows are loaded with COPY; when COPY fails
// on bad data the batch is replayed one INSERT per row so the offending rows
// can be reported individually.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
	pgddl "bqtarget/internal/storage/postgres/ddl"
)

const (
	codeDuplicateSchema = "42P06"
	codeDuplicateTable  = "42P07"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed storage.Backend minus Close, which the
// adapter supplies.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

func (r *Repository) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	_, err := r.pool.Exec(ctx, pgddl.CreateSchemaSQL(dataset))
	return ensureResult(err, codeDuplicateSchema)
}

func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	stmt, err := pgddl.BuildCreateTableSQL(dataset, table, fields)
	if err != nil {
		return storage.Created, err
	}
	_, err = r.pool.Exec(ctx, stmt)
	return ensureResult(err, codeDuplicateTable)
}

func (r *Repository) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = gddl.Values(fields, row, gddl.ValueOptions{ParseTimestamps: true})
	}

	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{dataset, table}, schema.ColumnNames(fields), pgx.CopyFromRows(values))
	if err == nil {
		return nil, nil
	}
	if !isRowError(err) {
		return nil, fmt.Errorf("copy into %s.%s: %w", dataset, table, err)
	}

	// COPY is all-or-nothing: replay row by row to find the bad ones.
	insert := pgddl.Dialect.InsertSQL(pgddl.TableDef(dataset, table, fields), placeholder)
	var rowErrs []storage.RowError
	for i, v := range values {
		if _, err := r.pool.Exec(ctx, insert, v...); err != nil {
			if isRowError(err) {
				rowErrs = append(rowErrs, storage.RowError{Index: i, Reason: describe(err)})
				continue
			}
			return rowErrs, fmt.Errorf("insert into %s.%s row %d: %w", dataset, table, i, err)
		}
	}
	return rowErrs, nil
}

func placeholder(i int) string { return "$" + strconv.Itoa(i) }

func ensureResult(err error, duplicateCode string) (storage.EnsureResult, error) {
	if err == nil {
		return storage.Created, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == duplicateCode {
		return storage.AlreadyExists, nil
	}
	return storage.Created, err
}

// isRowError reports data exceptions (class 22) and integrity constraint
// violations (class 23), which are attributable to a single row.
func isRowError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

func describe(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Sprintf("%s (%s): %s", pgErr.Message, pgErr.Code, pgErr.Detail)
		}
		return fmt.Sprintf("%s (%s)", pgErr.Message, pgErr.Code)
	}
	return err.Error()
}
