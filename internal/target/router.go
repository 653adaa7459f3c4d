package target

// Router maps a stream to its destination table. With a fixed table every
// stream lands in it; otherwise each stream gets a table of its own name.
type Router struct {
	fixed string
}

// NewRouter returns a Router. An empty tableID routes streams 1:1.
func NewRouter(tableID string) Router {
	return Router{fixed: tableID}
}

// Table returns the destination table for stream.
func (r Router) Table(stream string) string {
	if r.fixed != "" {
		return r.fixed
	}
	return stream
}

// Fixed reports whether every stream goes to one table.
func (r Router) Fixed() bool { return r.fixed != "" }
