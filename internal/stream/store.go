// Package stream buffers accepted records per destination table until the
// load phase.
package stream

import (
	"encoding/json"
	"fmt"

	"bqtarget/internal/schema"
)

// Record is one decoded row. Numbers are json.Number.
type Record = map[string]any

// State is the buffered state of one destination table.
type State struct {
	Table              string
	Stream             string // stream of the most recent schema
	Schema             *schema.SourceSchema
	RawSchema          json.RawMessage
	Fields             []schema.Field
	KeyProperties      []string
	BookmarkProperties []string
	Records            []Record
}

// Len is the number of buffered records.
func (s *State) Len() int { return len(s.Records) }

// Store maps table names to their state and remembers the order in which
// tables were first declared.
type Store struct {
	order  []string
	tables map[string]*State
}

func NewStore() *Store {
	return &Store{tables: make(map[string]*State)}
}

// Reset installs st as the state of st.Table, discarding any records
// buffered under an earlier schema. A table keeps its first-seen position.
func (s *Store) Reset(st State) *State {
	st.Records = nil
	if _, ok := s.tables[st.Table]; !ok {
		s.order = append(s.order, st.Table)
	}
	ns := st
	s.tables[st.Table] = &ns
	return &ns
}

// Append buffers rec for table. The table must have been declared.
func (s *Store) Append(table string, rec Record) error {
	st, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("append to undeclared table %q", table)
	}
	st.Records = append(st.Records, rec)
	return nil
}

// Get returns the state for table.
func (s *Store) Get(table string) (*State, bool) {
	st, ok := s.tables[table]
	return st, ok
}

// Tables returns every table state in first-declared order.
func (s *Store) Tables() []*State {
	out := make([]*State, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// Records is the total number of buffered records across tables.
func (s *Store) Records() int {
	n := 0
	for _, st := range s.tables {
		n += len(st.Records)
	}
	return n
}
