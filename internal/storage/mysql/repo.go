// Package mysql implements a MySQL storage backend on go-sql-driver/mysql.
// A dataset maps to a database. A batch is inserted inside one transaction,
// one statement per row; InnoDB rolls back only the failing statement, so
// rows rejected for their values are reported and the rest commit.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
	myddl "bqtarget/internal/storage/mysql/ddl"
)

const (
	errDatabaseExists = 1007
	errTableExists    = 1050
)

// rowErrorNumbers are server errors caused by the values of a single row.
var rowErrorNumbers = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1264: true, // out of range
	1292: true, // incorrect datetime value
	1366: true, // incorrect value for column
	1406: true, // data too long
	3140: true, // invalid JSON text
}

// Config holds MySQL repository configuration.
type Config struct {
	DSN string
}

// Repository is a MySQL-backed storage.Backend minus Close.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, forces UTC timestamps and strict mode, and
// pings the server.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

func normalizeDSN(raw string) (string, error) {
	mc, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	if _, ok := mc.Params["sql_mode"]; !ok {
		mc.Params["sql_mode"] = "'STRICT_ALL_TABLES,NO_ENGINE_SUBSTITUTION'"
	}
	return mc.FormatDSN(), nil
}

func (r *Repository) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	_, err := r.db.ExecContext(ctx, myddl.CreateDatabaseSQL(dataset))
	return ensureResult(err, errDatabaseExists)
}

func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	stmt, err := myddl.BuildCreateTableSQL(dataset, table, fields)
	if err != nil {
		return storage.Created, err
	}
	_, err = r.db.ExecContext(ctx, stmt)
	return ensureResult(err, errTableExists)
}

func (r *Repository) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := myddl.Dialect.InsertSQL(myddl.TableDef(dataset, table, fields), func(int) string { return "?" })
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return nil, fmt.Errorf("prepare insert into %s.%s: %w", dataset, table, err)
	}
	defer stmt.Close()

	var rowErrs []storage.RowError
	for i, row := range rows {
		args := gddl.Values(fields, row, gddl.ValueOptions{ParseTimestamps: true})
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isRowError(err) {
				rowErrs = append(rowErrs, storage.RowError{Index: i, Reason: err.Error()})
				continue
			}
			return rowErrs, fmt.Errorf("insert into %s.%s row %d: %w", dataset, table, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return rowErrs, fmt.Errorf("commit: %w", err)
	}
	return rowErrs, nil
}

func ensureResult(err error, existsCode uint16) (storage.EnsureResult, error) {
	if err == nil {
		return storage.Created, nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == existsCode {
		return storage.AlreadyExists, nil
	}
	return storage.Created, err
}

func isRowError(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && rowErrorNumbers[me.Number]
}
