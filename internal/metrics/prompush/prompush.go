// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A target run is a short-lived batch process, so instead of exposing a
// scrape endpoint the collected metrics are pushed to a Pushgateway when the
// run flushes. The job label doubles as the Pushgateway grouping key.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"bqtarget/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter    *prometheus.CounterVec // target_step_total
	stepDuration   *prometheus.SummaryVec // target_step_duration_seconds
	recordCounter  *prometheus.CounterVec // target_records_total
	messageCounter *prometheus.CounterVec // target_messages_total
	batchCounter   prometheus.Counter     // target_batches_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "target-bigquery"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Total number of load steps, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of load steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts per kind (buffered, loaded, rejected).",
		},
		[]string{"kind"},
	)
	messageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.MessagesTotal,
			Help: "Input messages per type.",
		},
		[]string{"type"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Total number of batch inserts submitted.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, recordCounter, messageCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stepCounter:    stepCounter,
		stepDuration:   stepDuration,
		recordCounter:  recordCounter,
		messageCounter: messageCounter,
		batchCounter:   batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.MessagesTotal:
		if b.messageCounter == nil {
			return
		}
		b.messageCounter.WithLabelValues(labels["type"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
