// Package bigquery is the BigQuery storage backend. Datasets and tables are
// created through the BigQuery API and a batch is submitted with a single
// streaming insert (tabledata.insertAll). Rows rejected by the service come
// back as row errors; the rest of the batch is kept.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
)

// Config holds BigQuery repository configuration.
type Config struct {
	ProjectID string
	// Location is applied to datasets this backend creates. Empty lets the
	// service choose.
	Location string
	// CredentialsPath points at a service-account key file. Empty uses
	// application default credentials.
	CredentialsPath string
	// RunID seeds the per-row insert IDs used for best-effort dedup.
	RunID string
}

// Repository is a BigQuery-backed storage.Backend minus Close.
type Repository struct {
	client *bigquery.Client
	cfg    Config
}

// NewRepository opens a client for cfg.ProjectID.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if cfg.ProjectID == "" {
		return nil, nil, errors.New("bigquery: project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("bigquery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &Repository{client: client, cfg: cfg}, func() { _ = client.Close() }, nil
}

func (r *Repository) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	err := r.client.Dataset(dataset).Create(ctx, &bigquery.DatasetMetadata{Location: r.cfg.Location})
	return ensureResult(err)
}

func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, fields []schema.Field) (storage.EnsureResult, error) {
	meta := &bigquery.TableMetadata{Schema: Schema(fields)}
	err := r.client.Dataset(dataset).Table(table).Create(ctx, meta)
	return ensureResult(err)
}

func (r *Repository) BatchInsert(ctx context.Context, dataset, table string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	savers := make([]bigquery.ValueSaver, len(rows))
	for i, row := range rows {
		savers[i] = &rowSaver{
			values:   Values(fields, row),
			insertID: InsertID(r.cfg.RunID, dataset, table, i),
		}
	}

	ins := r.client.Dataset(dataset).Table(table).Inserter()
	// Without this a single invalid row makes the service reject the whole
	// request.
	ins.SkipInvalidRows = true
	err := ins.Put(ctx, savers)
	if err == nil {
		return nil, nil
	}
	if rowErrs, ok := rowErrors(err); ok {
		return rowErrs, nil
	}
	return nil, fmt.Errorf("insert into %s.%s: %w", dataset, table, err)
}

func ensureResult(err error) (storage.EnsureResult, error) {
	if err == nil {
		return storage.Created, nil
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusConflict {
		return storage.AlreadyExists, nil
	}
	return storage.Created, err
}

// rowErrors converts a PutMultiError into per-row errors. ok is false for
// any other error.
func rowErrors(err error) ([]storage.RowError, bool) {
	var multi bigquery.PutMultiError
	if !errors.As(err, &multi) {
		return nil, false
	}
	out := make([]storage.RowError, 0, len(multi))
	for _, rie := range multi {
		out = append(out, storage.RowError{Index: rie.RowIndex, Reason: rie.Errors.Error()})
	}
	return out, true
}
