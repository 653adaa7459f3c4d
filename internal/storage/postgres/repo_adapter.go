package postgres

import (
	"context"

	"bqtarget/internal/storage"
	pgddl "bqtarget/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo completes storage.Backend with a Close that calls the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Backend = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() error {
	if w.closeFn != nil {
		w.closeFn()
	}
	return nil
}

// init registers the "postgres" backend and its DDL renderer.
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("postgres", pgddl.BuildCreateTableSQL)
}
