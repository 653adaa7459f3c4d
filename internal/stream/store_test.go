package stream

import (
	"testing"

	"bqtarget/internal/schema"
)

func TestStore_OrderAndReset(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Reset(State{Table: "users", Stream: "users", KeyProperties: []string{"id"}})
	s.Reset(State{Table: "orders", Stream: "orders"})

	if err := s.Append("users", Record{"id": 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append("users", Record{"id": 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := s.Records(); got != 2 {
		t.Fatalf("Records() = %d, want 2", got)
	}

	// A new schema for users clears its buffer but keeps its position.
	s.Reset(State{
		Table:  "users",
		Stream: "users",
		Fields: []schema.Field{{Name: "id", Type: "integer", Mode: schema.ModeNullable}},
	})
	tables := s.Tables()
	if len(tables) != 2 || tables[0].Table != "users" || tables[1].Table != "orders" {
		t.Fatalf("table order = %v", tableNames(tables))
	}
	if tables[0].Len() != 0 {
		t.Fatalf("users buffer not cleared: %d", tables[0].Len())
	}
	if len(tables[0].Fields) != 1 {
		t.Fatalf("users fields not replaced: %+v", tables[0].Fields)
	}
	if tables[0].KeyProperties != nil {
		t.Fatalf("key properties carried over from previous schema: %v", tables[0].KeyProperties)
	}
}

func TestStore_ResetDropsCallerRecords(t *testing.T) {
	t.Parallel()

	s := NewStore()
	st := s.Reset(State{Table: "t", Records: []Record{{"x": 1}}})
	if st.Len() != 0 {
		t.Fatalf("Reset kept %d records", st.Len())
	}
}

func TestStore_AppendUndeclared(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if err := s.Append("ghost", Record{}); err == nil {
		t.Fatalf("expected error for undeclared table")
	}
	if _, ok := s.Get("ghost"); ok {
		t.Fatalf("undeclared table materialized")
	}
}

func tableNames(states []*State) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.Table
	}
	return out
}
