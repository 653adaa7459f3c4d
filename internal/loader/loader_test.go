package loader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"bqtarget/internal/logger"
	"bqtarget/internal/runerr"
	"bqtarget/internal/schema"
	"bqtarget/internal/storage"
	"bqtarget/internal/storage/memory"
	"bqtarget/internal/stream"
)

var userFields = []schema.Field{
	{Name: "id", Type: "integer", Mode: schema.ModeNullable},
	{Name: "name", Type: schema.TypeString, Mode: schema.ModeNullable},
}

func table(name string, n int) *stream.State {
	st := &stream.State{Table: name, Stream: name, Fields: userFields}
	for i := 0; i < n; i++ {
		st.Records = append(st.Records, stream.Record{"id": i, "name": fmt.Sprintf("%s-%d", name, i)})
	}
	return st
}

func TestLoad_Sequential(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	tables := []*stream.State{table("users", 2), table("empty", 0), table("orders", 1)}

	results, err := Load(context.Background(), mem, tables, Options{Dataset: "ds", Logger: logger.NewLogfLogger(t)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []Result{
		{Table: "users", Stream: "users", Requested: 2, Loaded: 2},
		{Table: "empty", Stream: "empty"},
		{Table: "orders", Stream: "orders", Requested: 1, Loaded: 1},
	}
	if diff := cmp.Diff(want, results, cmpopts.IgnoreFields(Result{}, "Duration")); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []string{
		"dataset:ds",
		"table:ds.users", "insert:ds.users",
		"table:ds.empty",
		"table:ds.orders", "insert:ds.orders",
	}
	if diff := cmp.Diff(wantCalls, mem.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RowErrorsAreSoft(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	mem.SetRejector(func(dataset, tbl string, index int, row storage.Row) string {
		if tbl == "users" && index == 1 {
			return "invalid value"
		}
		return ""
	})

	results, err := Load(context.Background(), mem, []*stream.State{table("users", 3), table("orders", 2)}, Options{Dataset: "ds"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := results[0]; got.Loaded != 2 || len(got.RowErrors) != 1 || got.RowErrors[0].Index != 1 {
		t.Fatalf("users result = %+v", got)
	}
	if got := results[1]; got.Loaded != 2 || len(got.RowErrors) != 0 {
		t.Fatalf("orders result = %+v", got)
	}
	tbl, _ := mem.Table("ds", "users")
	if len(tbl.Rows) != 2 {
		t.Fatalf("stored users rows = %d, want 2", len(tbl.Rows))
	}
}

func TestLoad_ExistingObjectsAreNotErrors(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	ctx := context.Background()
	if _, err := Load(ctx, mem, []*stream.State{table("users", 1)}, Options{Dataset: "ds"}); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	results, err := Load(ctx, mem, []*stream.State{table("users", 1)}, Options{Dataset: "ds"})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if results[0].Ensure != storage.AlreadyExists {
		t.Fatalf("Ensure = %v, want already_exists", results[0].Ensure)
	}
	tbl, _ := mem.Table("ds", "users")
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
}

// failingBackend wraps a memory store and fails selected operations.
type failingBackend struct {
	*memory.Store
	failDataset bool
	failTable   string
	failInsert  string
	sawDeadline atomic.Bool
}

func (f *failingBackend) EnsureDataset(ctx context.Context, dataset string) (storage.EnsureResult, error) {
	if f.failDataset {
		return storage.Created, errors.New("permission denied")
	}
	return f.Store.EnsureDataset(ctx, dataset)
}

func (f *failingBackend) EnsureTable(ctx context.Context, dataset, tbl string, fields []schema.Field) (storage.EnsureResult, error) {
	if tbl == f.failTable {
		return storage.Created, errors.New("quota exceeded")
	}
	return f.Store.EnsureTable(ctx, dataset, tbl, fields)
}

func (f *failingBackend) BatchInsert(ctx context.Context, dataset, tbl string, fields []schema.Field, rows []storage.Row) ([]storage.RowError, error) {
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline.Store(true)
	}
	if tbl == f.failInsert {
		return nil, errors.New("connection reset")
	}
	return f.Store.BatchInsert(ctx, dataset, tbl, fields, rows)
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		backend  *failingBackend
		wantKind runerr.Kind
		stream   string
	}{
		{"dataset", &failingBackend{Store: memory.New(), failDataset: true}, runerr.KindStorage, ""},
		{"table", &failingBackend{Store: memory.New(), failTable: "orders"}, runerr.KindStorage, "orders"},
		{"insert", &failingBackend{Store: memory.New(), failInsert: "users"}, runerr.KindInsert, "users"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(context.Background(), tt.backend, []*stream.State{table("users", 1), table("orders", 1)}, Options{Dataset: "ds"})
			var re *runerr.Error
			if !errors.As(err, &re) {
				t.Fatalf("err = %v, want *runerr.Error", err)
			}
			if re.Kind != tt.wantKind || re.Stream != tt.stream {
				t.Fatalf("kind=%s stream=%q, want %s %q", re.Kind, re.Stream, tt.wantKind, tt.stream)
			}
		})
	}
}

func TestLoad_InsertTimeoutApplied(t *testing.T) {
	t.Parallel()

	fb := &failingBackend{Store: memory.New()}
	if _, err := Load(context.Background(), fb, []*stream.State{table("users", 1)}, Options{Dataset: "ds", InsertTimeout: time.Minute}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !fb.sawDeadline.Load() {
		t.Fatalf("BatchInsert ran without a deadline")
	}
}

func TestLoad_Parallel(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	var tables []*stream.State
	for i := 0; i < 8; i++ {
		tables = append(tables, table(fmt.Sprintf("t%d", i), i))
	}

	results, err := Load(context.Background(), mem, tables, Options{Dataset: "ds", Workers: 3})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, r := range results {
		if r.Table != tables[i].Table || r.Loaded != i {
			t.Fatalf("results[%d] = %+v", i, r)
		}
		stored, ok := mem.Table("ds", r.Table)
		if !ok || len(stored.Rows) != i {
			t.Fatalf("table %s stored %d rows, want %d", r.Table, len(stored.Rows), i)
		}
	}
}
