package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

var kinds = []string{"bigquery", "memory", "mssql", "mysql", "postgres", "sqlite"}

func valid() Config {
	c := Config{ProjectID: "proj", DatasetID: "raw"}
	c.ApplyDefaults()
	return c
}

func TestValidate_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := Validate(valid(), kinds); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidate_Issues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing dataset", func(c *Config) { c.DatasetID = " " }, SeverityError, "dataset_id", "must not be empty"},
		{"bigquery without project", func(c *Config) { c.ProjectID = "" }, SeverityError, "project_id", "required"},
		{"unknown storage", func(c *Config) { c.Storage = "oracle" }, SeverityError, "storage", "unsupported storage"},
		{"sql without dsn", func(c *Config) { c.Storage = "mysql" }, SeverityError, "dsn", "required for storage=mysql"},
		{"dsn ignored", func(c *Config) { c.DSN = "x" }, SeverityWarning, "dsn", "ignored"},
		{"location on sql", func(c *Config) { c.Storage = "postgres"; c.DSN = "x"; c.Location = "EU" }, SeverityWarning, "location", "only applies"},
		{"sqlite workers", func(c *Config) { c.Storage = "sqlite"; c.DSN = "f.db"; c.LoadWorkers = 4 }, SeverityWarning, "load_workers", "no effect"},
		{"many workers", func(c *Config) { c.LoadWorkers = 64 }, SeverityWarning, "load_workers", "unusually high"},
		{"zero timeout", func(c *Config) { c.InsertTimeout.Duration = 0 }, SeverityError, "insert_timeout", "positive"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, SeverityError, "log_level", "unknown log level"},
		{"bad metrics backend", func(c *Config) { c.Metrics.Backend = "graphite" }, SeverityError, "metrics.backend", "unknown metrics backend"},
		{"pushgateway without url", func(c *Config) { c.Metrics.Backend = "pushgateway"; c.Metrics.PushgatewayURL = "" }, SeverityError, "metrics.pushgateway_url", "required"},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = "datadog"; c.Metrics.DatadogAddr = "" }, SeverityError, "metrics.datadog_addr", "required"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(&c)
			issues := Validate(c, kinds)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
			if HasErrors(issues) != (tt.sev == SeverityError) {
				t.Fatalf("HasErrors = %v for %+v", HasErrors(issues), issues)
			}
		})
	}
}

func TestValidate_NilKindsSkipsStorageCheck(t *testing.T) {
	t.Parallel()

	c := valid()
	c.Storage = "custom"
	if issues := Validate(c, nil); HasErrors(issues) {
		t.Fatalf("unexpected errors: %+v", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "dsn", Message: "missing"}
	if got := iss.Error(); got != "error at dsn: missing" {
		t.Fatalf("Error() = %q", got)
	}
}
