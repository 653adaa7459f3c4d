// Package loader drains the buffered tables into a storage backend once the
// input is exhausted: the dataset is ensured once, then every table is
// ensured and submitted as a single batch insert.
//
// Rows the backend rejects individually are soft failures: they are logged,
// counted and reported in the table's Result while other rows and tables
// proceed. Any other ensure or insert failure aborts the load.
package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bqtarget/internal/logger"
	"bqtarget/internal/metrics"
	"bqtarget/internal/runerr"
	"bqtarget/internal/storage"
	"bqtarget/internal/stream"
)

// DefaultInsertTimeout bounds one batch insert when Options leaves it unset.
const DefaultInsertTimeout = 5 * time.Minute

// Options tunes a load.
type Options struct {
	Dataset string
	// Job labels metrics.
	Job string
	// Workers is the number of tables loaded concurrently. Values below 2
	// load sequentially in first-declared order.
	Workers int
	// InsertTimeout bounds each BatchInsert call.
	InsertTimeout time.Duration
	Logger        logger.Logger
}

// Result is the outcome of one table load.
type Result struct {
	Table     string
	Stream    string
	Requested int
	Loaded    int
	RowErrors []storage.RowError
	Ensure    storage.EnsureResult
	Duration  time.Duration
}

// Load ensures the dataset, then loads every table. Results are returned in
// the order of tables. On failure the returned error is a *runerr.Error of
// kind KindStorage or KindInsert and the results are incomplete.
func Load(ctx context.Context, b storage.Backend, tables []*stream.State, opts Options) ([]Result, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger
	}
	if opts.InsertTimeout <= 0 {
		opts.InsertTimeout = DefaultInsertTimeout
	}
	log := opts.Logger.WithPrefix("loader: ")

	start := time.Now()
	res, err := b.EnsureDataset(ctx, opts.Dataset)
	metrics.RecordStep(opts.Job, "ensure_dataset", err, time.Since(start))
	if err != nil {
		return nil, runerr.New(runerr.KindStorage, fmt.Errorf("ensure dataset %s: %w", opts.Dataset, err))
	}
	log.Debugf("dataset=%s ensure=%s", opts.Dataset, res)

	results := make([]Result, len(tables))
	if opts.Workers < 2 || len(tables) < 2 {
		for i, st := range tables {
			r, err := loadTable(ctx, b, st, opts, log)
			if err != nil {
				return results[:i], err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, st := range tables {
		i, st := i, st
		g.Go(func() error {
			r, err := loadTable(gctx, b, st, opts, log)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func loadTable(ctx context.Context, b storage.Backend, st *stream.State, opts Options, log logger.Logger) (Result, error) {
	start := time.Now()
	r := Result{Table: st.Table, Stream: st.Stream, Requested: st.Len()}

	t0 := time.Now()
	ensure, err := b.EnsureTable(ctx, opts.Dataset, st.Table, st.Fields)
	metrics.RecordStep(opts.Job, "ensure_table", err, time.Since(t0))
	if err != nil {
		return r, runerr.ForStream(runerr.KindStorage, st.Stream, fmt.Errorf("ensure table %s.%s: %w", opts.Dataset, st.Table, err))
	}
	r.Ensure = ensure

	if st.Len() == 0 {
		r.Duration = time.Since(start)
		log.Infof("table=%s rows=0 ensure=%s insert=skipped", st.Table, ensure)
		return r, nil
	}

	ictx, cancel := context.WithTimeout(ctx, opts.InsertTimeout)
	defer cancel()

	t0 = time.Now()
	rowErrs, err := b.BatchInsert(ictx, opts.Dataset, st.Table, st.Fields, st.Records)
	metrics.RecordStep(opts.Job, "insert", err, time.Since(t0))
	if err != nil {
		return r, runerr.ForStream(runerr.KindInsert, st.Stream, fmt.Errorf("insert into %s.%s: %w", opts.Dataset, st.Table, err))
	}
	metrics.RecordBatches(opts.Job, 1)

	r.RowErrors = rowErrs
	r.Loaded = r.Requested - len(rowErrs)
	r.Duration = time.Since(start)
	metrics.RecordRow(opts.Job, "loaded", int64(r.Loaded))
	metrics.RecordRow(opts.Job, "rejected", int64(len(rowErrs)))

	for _, re := range rowErrs {
		log.Warnf("table=%s %s", st.Table, re)
	}
	log.Infof("table=%s rows=%d loaded=%d rejected=%d ensure=%s elapsed=%s",
		st.Table, r.Requested, r.Loaded, len(rowErrs), ensure, r.Duration.Truncate(time.Millisecond))
	return r, nil
}
