package bigquery

import (
	"context"

	"bqtarget/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo completes storage.Backend with Close.
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
	storage.Register("bigquery", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		r, closeFn, err := newRepository(ctx, Config{
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			CredentialsPath: cfg.CredentialsPath,
			RunID:           cfg.RunID,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
