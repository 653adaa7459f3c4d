// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a target run.
//
// It exposes a narrow interface (Backend) of counters and timings behind a
// global, pluggable backend that defaults to a no-op, so instrumentation is
// always safe to call. Concrete systems live in subpackages (prompush,
// datadog) in the same way storage backends live under storage/.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "target_step_total"
	StepDurationSeconds = "target_step_duration_seconds"
	RecordsTotal        = "target_records_total"
	BatchesTotal        = "target_batches_total"
	MessagesTotal       = "target_messages_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one step, e.g.
// ensure_dataset, ensure_table or insert.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds used by the target:
//   - "buffered"
//   - "loaded"
//   - "rejected"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the batch-insert counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordMessage counts one input message of the given type
// (SCHEMA, RECORD, STATE, ACTIVATE_VERSION).
func RecordMessage(job, msgType string) {
	backend.IncCounter(MessagesTotal, 1, Labels{
		"job":  job,
		"type": msgType,
	})
}
