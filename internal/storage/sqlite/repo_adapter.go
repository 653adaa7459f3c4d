// Package sqlite wires the SQLite backend into the storage factory.
// Registration happens in init.
package sqlite

import (
	"context"

	"bqtarget/internal/storage"
	sqliteddl "bqtarget/internal/storage/sqlite/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to storage.Backend, adding a Close
// method that calls the cleanup function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() error {
	if w.closeFn != nil {
		w.closeFn()
	}
	return nil
}

// Ensure wrappedRepo satisfies the interface at compile time.
var _ storage.Backend = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlite", sqliteddl.BuildCreateTableSQL)
}
