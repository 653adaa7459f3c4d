// Package mssql implements a Microsoft SQL Server storage backend on
// go-mssqldb. A dataset maps to a schema. Rows are loaded with the driver's
// bulk copy API inside a transaction; when the bulk load fails the
// transaction is rolled back and the batch is replayed one INSERT per row so
// rejected rows can be reported individually.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
	msddl "bqtarget/internal/storage/mssql/ddl"
)

// errObjectExists is "There is already an object named ... in the database",
// raised for both schemas and tables.
const errObjectExists = 2714

// rowErrorNumbers are errors attributable to the values of a single row.
var rowErrorNumbers = map[int32]bool{
	220:  true, // arithmetic overflow
	241:  true, // date/time conversion
	245:  true, // conversion failed
	515:  true, // NULL into NOT NULL column
	547:  true, // constraint conflict
	2601: true, // duplicate key (unique index)
	2627: true, // duplicate key (constraint)
	2628: true, // string truncation
	8114: true, // error converting data type
	8115: true, // arithmetic overflow converting
	8152: true, // string truncation (legacy)
}

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed storage.Backend minus Close.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

func (r *Repository) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	_, err := r.db.ExecContext(ctx, msddl.CreateSchemaSQL(dataset))
	return ensureResult(err)
}

func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	stmt, err := msddl.BuildCreateTableSQL(dataset, table, fields)
	if err != nil {
		return storage.Created, err
	}
	_, err = r.db.ExecContext(ctx, stmt)
	return ensureResult(err)
}

func (r *Repository) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = gddl.Values(fields, row, gddl.ValueOptions{ParseTimestamps: true})
	}

	err := r.bulkCopy(ctx, msddl.Dialect.TableName(dataset, table), schema.ColumnNames(fields), values)
	if err == nil {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("bulk copy into %s.%s: %w", dataset, table, err)
	}

	insert := msddl.Dialect.InsertSQL(msddl.TableDef(dataset, table, fields), placeholder)
	var rowErrs []storage.RowError
	for i, v := range values {
		if _, err := r.db.ExecContext(ctx, insert, v...); err != nil {
			if isRowError(err) {
				rowErrs = append(rowErrs, storage.RowError{Index: i, Reason: err.Error()})
				continue
			}
			return rowErrs, fmt.Errorf("insert into %s.%s row %d: %w", dataset, table, i, err)
		}
	}
	return rowErrs, nil
}

// bulkCopy loads rows with a single bulk copy inside a transaction, so a
// failure leaves the table untouched.
func (r *Repository) bulkCopy(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{CheckConstraints: true}, columns...))
	if err != nil {
		rollback()
		return fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	_, err = stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return fmt.Errorf("bulk finalize: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func placeholder(i int) string { return "@p" + strconv.Itoa(i) }

func ensureResult(err error) (storage.EnsureResult, error) {
	if err == nil {
		return storage.Created, nil
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) && msErr.Number == errObjectExists {
		return storage.AlreadyExists, nil
	}
	return storage.Created, err
}

func isRowError(err error) bool {
	var msErr mssql.Error
	return errors.As(err, &msErr) && rowErrorNumbers[msErr.Number]
}
