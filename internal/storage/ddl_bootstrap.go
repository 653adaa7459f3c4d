package storage

import (
	"fmt"
	"sort"
	"sync"

	"bqtarget/internal/schema"
)

// DDLRenderer renders the statements a SQL backend runs to create a table
// for the given fields. Backends register one for their kind at init time;
// the same renderer backs their EnsureTable.
type DDLRenderer func(dataset, table string, fields []schema.Field) (string, error)

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLRenderer{}
)

// RegisterDDL registers (or replaces) the renderer for kind.
func RegisterDDL(kind string, fn DDLRenderer) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// CreateTableSQL renders the CREATE TABLE statement kind would run for
// dataset.table. Kinds without SQL DDL (bigquery, memory) return an error.
func CreateTableSQL(kind, dataset, table string, fields []schema.Field) (string, error) {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no DDL renderer registered for storage.kind=%q", kind)
	}
	return fn(dataset, table, fields)
}

// ListDDLKinds returns the kinds with a registered renderer, sorted.
func ListDDLKinds() []string {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	out := make([]string, 0, len(ddlFns))
	for k := range ddlFns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
