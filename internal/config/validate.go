package config

import (
	"fmt"
	"strings"

	"bqtarget/internal/logger"
	"bqtarget/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is the config key, e.g.
// "metrics.backend".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// sqlKinds need a DSN.
var sqlKinds = map[string]bool{
	"postgres": true,
	"sqlite":   true,
	"mssql":    true,
	"mysql":    true,
}

// Validate lints a decoded config. kinds lists the registered storage kinds;
// nil skips the storage-kind check.
func Validate(c Config, kinds []string) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.DatasetID) == "" {
		add(SeverityError, "dataset_id", "dataset_id must not be empty")
	}

	if kinds != nil && !contains(kinds, c.Storage) {
		add(SeverityError, "storage", "unsupported storage %q (available: %s)", c.Storage, strings.Join(kinds, ", "))
	}
	switch {
	case c.Storage == "bigquery":
		if strings.TrimSpace(c.ProjectID) == "" {
			add(SeverityError, "project_id", "project_id is required for storage=bigquery")
		}
		if c.DSN != "" {
			add(SeverityWarning, "dsn", "dsn is ignored for storage=bigquery")
		}
	case sqlKinds[c.Storage]:
		if strings.TrimSpace(c.DSN) == "" {
			add(SeverityError, "dsn", "dsn is required for storage=%s", c.Storage)
		}
		if c.Location != "" {
			add(SeverityWarning, "location", "location only applies to storage=bigquery")
		}
		if c.CredentialsPath != "" {
			add(SeverityWarning, "credentials_path", "credentials_path only applies to storage=bigquery")
		}
	}

	if c.LoadWorkers > 32 {
		add(SeverityWarning, "load_workers", "load_workers=%d is unusually high", c.LoadWorkers)
	}
	if c.Storage == "sqlite" && c.LoadWorkers > 1 {
		add(SeverityWarning, "load_workers", "sqlite serializes writers; load_workers>1 has no effect")
	}
	if c.InsertTimeout.Duration <= 0 {
		add(SeverityError, "insert_timeout", "insert_timeout must be positive")
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		add(SeverityError, "log_level", "%v", err)
	}

	switch c.Metrics.Backend {
	case "", "none":
	case "pushgateway", "prom", "prometheus":
		if c.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway_url is required for metrics.backend=%s", c.Metrics.Backend)
		}
	case "datadog", "dogstatsd":
		if c.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog_addr is required for metrics.backend=%s", c.Metrics.Backend)
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q (want none, pushgateway or datadog)", c.Metrics.Backend)
	}

	return issues
}

// HasErrors reports whether issues contains an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// KnownStorageKinds is the registered storage kinds; a convenience for
// Validate callers.
func KnownStorageKinds() []string { return storage.ListKinds() }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
