// Package config defines the target's configuration model and loads it from
// disk.
//
// Following the Singer convention the file is a JSON object; a file with a
// .toml extension is decoded as TOML instead, in which case unknown keys are
// rejected. Defaults are applied after decoding, so an explicit zero value
// and an absent key behave the same.
//
// Example (JSON):
//
//	{
//	  "project_id": "my-project",
//	  "dataset_id": "raw",
//	  "storage": "bigquery",
//	  "load_workers": 4,
//	  "metrics": { "backend": "pushgateway" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"bqtarget/internal/storage"
	"bqtarget/internal/telemetry"
)

// Defaults.
const (
	DefaultStorage        = "bigquery"
	DefaultJob            = "target-bigquery"
	DefaultLoadWorkers    = 1
	DefaultInsertTimeout  = 5 * time.Minute
	DefaultPushgatewayURL = "http://localhost:9091"
	DefaultDatadogAddr    = "127.0.0.1:8125"
)

// Config is the decoded configuration file.
type Config struct {
	ProjectID string `json:"project_id" toml:"project_id"`
	DatasetID string `json:"dataset_id" toml:"dataset_id"`
	// TableID routes every stream to one table when set.
	TableID string `json:"table_id" toml:"table_id"`

	DisableCollection bool   `json:"disable_collection" toml:"disable_collection"`
	CollectionURL     string `json:"collection_url" toml:"collection_url"`

	// Storage selects the backend kind.
	Storage         string `json:"storage" toml:"storage"`
	DSN             string `json:"dsn" toml:"dsn"`
	Location        string `json:"location" toml:"location"`
	CredentialsPath string `json:"credentials_path" toml:"credentials_path"`

	LoadWorkers   int      `json:"load_workers" toml:"load_workers"`
	InsertTimeout Duration `json:"insert_timeout" toml:"insert_timeout"`

	Job      string  `json:"job" toml:"job"`
	LogLevel string  `json:"log_level" toml:"log_level"`
	Metrics  Metrics `json:"metrics" toml:"metrics"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is one of none, pushgateway, datadog.
	Backend        string   `json:"backend" toml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" toml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" toml:"datadog_addr"`
	Namespace      string   `json:"namespace" toml:"namespace"`
	Tags           []string `json:"tags" toml:"tags"`
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads and decodes the file at path and applies defaults. It does not
// validate; see Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return DecodeTOML(data)
	}
	return DecodeJSON(data)
}

// DecodeJSON decodes a JSON config. Unknown keys are ignored, as Singer
// configs are commonly shared between a tap and a target.
func DecodeJSON(data []byte) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// DecodeTOML decodes a TOML config, rejecting unknown keys.
func DecodeTOML(data []byte) (Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = DefaultStorage
	}
	if c.CollectionURL == "" {
		c.CollectionURL = telemetry.DefaultURL
	}
	if c.LoadWorkers <= 0 {
		c.LoadWorkers = DefaultLoadWorkers
	}
	if c.InsertTimeout.Duration <= 0 {
		c.InsertTimeout.Duration = DefaultInsertTimeout
	}
	if c.Job == "" {
		c.Job = DefaultJob
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Metrics.Backend = strings.ToLower(strings.TrimSpace(c.Metrics.Backend))
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "none"
	}
	if c.Metrics.PushgatewayURL == "" {
		c.Metrics.PushgatewayURL = DefaultPushgatewayURL
	}
	if c.Metrics.DatadogAddr == "" {
		c.Metrics.DatadogAddr = DefaultDatadogAddr
	}
}

// StorageConfig builds the backend configuration for this run.
func (c Config) StorageConfig(runID string) storage.Config {
	return storage.Config{
		Kind:            c.Storage,
		DSN:             c.DSN,
		ProjectID:       c.ProjectID,
		Location:        c.Location,
		CredentialsPath: c.CredentialsPath,
		RunID:           runID,
		InsertTimeout:   c.InsertTimeout.Duration,
	}
}
