// Package checkpoint tracks the most recent state value that is still safe
// to hand back to the orchestrator and writes it out once loading is done.
package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Tracker holds at most one pending state value. Any accepted record
// invalidates it until the next STATE message.
type Tracker struct {
	pending json.RawMessage
}

// Observe replaces the pending value.
func (t *Tracker) Observe(raw json.RawMessage) {
	t.pending = bytes.Clone(raw)
}

// Invalidate drops the pending value.
func (t *Tracker) Invalidate() { t.pending = nil }

// Pending returns the pending value, if any.
func (t *Tracker) Pending() (json.RawMessage, bool) {
	if t.pending == nil {
		return nil, false
	}
	return t.pending, true
}

// Emit writes raw compacted onto one line followed by a newline, then
// flushes w if it buffers.
func Emit(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fmt.Errorf("compact state: %w", err)
	}
	buf.WriteByte('\n')

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush state: %w", err)
		}
	}
	return nil
}
