package target

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"bqtarget/internal/checkpoint"
	"bqtarget/internal/config"
	"bqtarget/internal/loader"
	"bqtarget/internal/logger"
	"bqtarget/internal/runerr"
	"bqtarget/internal/singer"
	"bqtarget/internal/storage"
	"bqtarget/internal/telemetry"
)

// Options configures one run.
type Options struct {
	Config config.Config
	// In carries the tap's messages; Out receives the emitted state.
	In  io.Reader
	Out io.Writer

	Logger  logger.Logger
	Version string
	// RunID seeds backend insert IDs. Empty generates one.
	RunID string

	// OpenBackend defaults to storage.New.
	OpenBackend func(ctx context.Context, cfg storage.Config) (storage.Backend, error)
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Messages map[string]int
	Tables   []loader.Result
	// State is the emitted checkpoint, nil when nothing was emitted.
	State    []byte
	Duration time.Duration
}

// Run opens the backend, consumes every message from opts.In, loads the
// buffered tables and writes the retained checkpoint to opts.Out. Any
// returned error means no checkpoint was emitted.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.NopLogger
	}
	open := opts.OpenBackend
	if open == nil {
		open = storage.New
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if !cfg.DisableCollection {
		log.Infof("Sending version information to singer.io. To disable sending anonymous usage data, set the config parameter \"disable_collection\" to true")
		telemetry.Start(ctx, telemetry.Config{URL: cfg.CollectionURL, Version: opts.Version, Logger: log})
	}

	backend, err := open(ctx, cfg.StorageConfig(runID))
	if err != nil {
		return nil, runerr.New(runerr.KindStorage, err)
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			log.Warnf("close %s storage: %v", cfg.Storage, cerr)
		}
	}()

	router := NewRouter(cfg.TableID)
	if router.Fixed() {
		log.Infof("run=%s routing every stream to table %s", runID, cfg.TableID)
	}
	d := NewDispatcher(router, log, cfg.Job)
	r := singer.NewReader(opts.In)
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.HandleLine(r.Line()); err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, runerr.New(runerr.KindMalformedInput, err)
	}

	tables := d.Store().Tables()
	log.Infof("run=%s input done tables=%d records=%d", runID, len(tables), d.Store().Records())

	results, err := loader.Load(ctx, backend, tables, loader.Options{
		Dataset:       cfg.DatasetID,
		Job:           cfg.Job,
		Workers:       cfg.LoadWorkers,
		InsertTimeout: cfg.InsertTimeout.Duration,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	sum := &Summary{RunID: runID, Messages: d.Counts(), Tables: results}
	if state, ok := d.Checkpoint(); ok {
		if err := checkpoint.Emit(opts.Out, state); err != nil {
			return sum, fmt.Errorf("emit state: %w", err)
		}
		sum.State = state
		log.Debugf("emitted state %s", state)
	}
	sum.Duration = time.Since(start)
	return sum, nil
}
