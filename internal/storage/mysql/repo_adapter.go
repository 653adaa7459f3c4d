package mysql

import (
	"context"

	"bqtarget/internal/storage"
	myddl "bqtarget/internal/storage/mysql/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

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

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("mysql", myddl.BuildCreateTableSQL)
}
