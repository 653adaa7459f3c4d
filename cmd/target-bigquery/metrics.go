package main

import (
	"bqtarget/internal/config"
	"bqtarget/internal/logger"
	"bqtarget/internal/metrics"
	"bqtarget/internal/metrics/datadog"
	"bqtarget/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it. Init failures fall back to the nop backend.
func setupMetrics(cfg config.Config, log logger.Logger) func() {
	m := cfg.Metrics
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.Namespace, GlobalTags: m.Tags})
	case "", "none":
		log.Debugf("metrics: disabled")
		return func() {}
	default:
		log.Warnf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return func() {}
	}
	if err != nil {
		log.Warnf("metrics: failed to init %s backend: %v; using nop", m.Backend, err)
		return func() {}
	}

	log.Debugf("metrics: backend=%s job=%s", m.Backend, cfg.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnf("metrics: flush error: %v", err)
		}
	}
}
