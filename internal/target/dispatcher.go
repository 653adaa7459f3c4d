// Package target runs the load pipeline: it reduces the input messages into
// per-table buffers and a pending checkpoint, then hands the buffers to the
// loader and emits the checkpoint once the load succeeded.
package target

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"bqtarget/internal/checkpoint"
	"bqtarget/internal/logger"
	"bqtarget/internal/metrics"
	"bqtarget/internal/runerr"
	"bqtarget/internal/schema"
	"bqtarget/internal/singer"
	"bqtarget/internal/stream"
	"bqtarget/internal/validate"
)

// maxQuotedLine caps how much of an offending line goes into an error.
const maxQuotedLine = 256

// Dispatcher is the sequential reducer over input messages. It is owned by a
// single run and is not safe for concurrent use.
type Dispatcher struct {
	router     Router
	store      *stream.Store
	validators map[string]*validate.Validator
	tracker    checkpoint.Tracker
	log        logger.Logger
	job        string
	counts     map[string]int
}

// NewDispatcher returns a Dispatcher with empty state. job labels metrics.
func NewDispatcher(router Router, log logger.Logger, job string) *Dispatcher {
	if log == nil {
		log = logger.NopLogger
	}
	return &Dispatcher{
		router:     router,
		store:      stream.NewStore(),
		validators: make(map[string]*validate.Validator),
		log:        log,
		job:        job,
		counts:     make(map[string]int),
	}
}

// HandleLine parses one input line and dispatches it.
func (d *Dispatcher) HandleLine(line singer.Line) error {
	msg, err := singer.Parse(line.Text)
	if err != nil {
		return &runerr.Error{
			Kind: runerr.KindMalformedInput,
			Line: line.Number,
			Err:  fmt.Errorf("%w: %s", err, quote(line.Text)),
		}
	}
	if err := d.Dispatch(msg); err != nil {
		var re *runerr.Error
		if errors.As(err, &re) && re.Line == 0 {
			re.Line = line.Number
		}
		return err
	}
	return nil
}

// Dispatch applies one parsed message.
func (d *Dispatcher) Dispatch(msg singer.Message) error {
	switch m := msg.(type) {
	case *singer.SchemaMessage:
		return d.onSchema(m)
	case *singer.RecordMessage:
		return d.onRecord(m)
	case *singer.StateMessage:
		d.onState(m)
		return nil
	case *singer.ActivateVersionMessage:
		d.count(m.Kind())
		d.log.Debugf("stream=%s activate_version=%d ignored", m.Stream, m.Version)
		return nil
	case *singer.UnknownMessage:
		return runerr.Newf(runerr.KindUnrecognizedMessage, "unrecognized message type %q", m.Type)
	default:
		return runerr.Newf(runerr.KindUnrecognizedMessage, "unrecognized message %T", msg)
	}
}

func (d *Dispatcher) onSchema(m *singer.SchemaMessage) error {
	src, err := schema.Parse(m.Schema)
	if err != nil {
		return runerr.ForStream(runerr.KindInvalidSchema, m.Stream, err)
	}
	fields, err := schema.Build(src)
	if err != nil {
		return runerr.ForStream(runerr.KindInvalidSchema, m.Stream, err)
	}
	v, err := validate.Compile(m.Stream, m.Schema)
	if err != nil {
		return runerr.ForStream(runerr.KindInvalidSchema, m.Stream, err)
	}

	table := d.router.Table(m.Stream)
	if prev, ok := d.store.Get(table); ok && prev.Len() > 0 {
		d.log.Warnf("table=%s stream=%s new schema discards %d buffered record(s)", table, m.Stream, prev.Len())
	}
	d.store.Reset(stream.State{
		Table:              table,
		Stream:             m.Stream,
		Schema:             src,
		RawSchema:          m.Schema,
		Fields:             fields,
		KeyProperties:      m.KeyProperties,
		BookmarkProperties: m.BookmarkProperties,
	})
	d.validators[m.Stream] = v
	d.count(m.Kind())
	d.log.Debugf("stream=%s table=%s columns=%d", m.Stream, table, len(fields))
	return nil
}

func (d *Dispatcher) onRecord(m *singer.RecordMessage) error {
	v, ok := d.validators[m.Stream]
	if !ok {
		return runerr.ForStream(runerr.KindUndeclaredStream, m.Stream,
			errors.New("record encountered before a corresponding schema"))
	}
	if err := v.Validate(m.Record); err != nil {
		return runerr.ForStream(runerr.KindSchemaViolation, m.Stream, err)
	}
	if err := d.store.Append(d.router.Table(m.Stream), m.Record); err != nil {
		return runerr.ForStream(runerr.KindUndeclaredStream, m.Stream, err)
	}
	d.tracker.Invalidate()
	d.count(m.Kind())
	metrics.RecordRow(d.job, "buffered", 1)
	return nil
}

func (d *Dispatcher) onState(m *singer.StateMessage) {
	d.count(m.Kind())
	if bytes.Equal(bytes.TrimSpace(m.Value), []byte("null")) {
		d.tracker.Invalidate()
		return
	}
	d.tracker.Observe(m.Value)
	d.log.Debugf("state set to %s", m.Value)
}

func (d *Dispatcher) count(kind string) {
	d.counts[kind]++
	metrics.RecordMessage(d.job, kind)
}

// Store returns the buffered tables.
func (d *Dispatcher) Store() *stream.Store { return d.store }

// Checkpoint returns the state value that is safe to emit, if any.
func (d *Dispatcher) Checkpoint() (json.RawMessage, bool) { return d.tracker.Pending() }

// Counts returns how many messages of each type were accepted.
func (d *Dispatcher) Counts() map[string]int {
	out := make(map[string]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

func quote(b []byte) string {
	if len(b) > maxQuotedLine {
		return fmt.Sprintf("%q...", b[:maxQuotedLine])
	}
	return fmt.Sprintf("%q", b)
}
