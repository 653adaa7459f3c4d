package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bqtarget/internal/runerr"
	"bqtarget/internal/storage/memory"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "target-bigquery dev (none)\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestRoot_ConfigRequired(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "")
	if !runerr.Is(err, runerr.KindConfig) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "config.json", `{"storage":"memory","disable_collection":true}`)
	_, stderr, err := execute(t, "", "--config", cfg)
	if !runerr.Is(err, runerr.KindConfig) {
		t.Fatalf("err = %v, want config error", err)
	}
	if !strings.Contains(stderr, "dataset_id") {
		t.Fatalf("stderr does not name dataset_id: %q", stderr)
	}
}

func TestRoot_ValidateOnly(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "config.json", `{"dataset_id":"validate_only","storage":"memory","disable_collection":true}`)
	stdout, _, err := execute(t, `{"type":"RECORD","stream":"x","record":{}}`+"\n", "-c", cfg, "--validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want nothing", stdout)
	}
	if memory.Shared().HasDataset("validate_only") {
		t.Fatalf("--validate touched storage")
	}
}

func TestRoot_LoadsIntoMemory(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "config.toml", `
dataset_id = "cli_run"
storage = "memory"
disable_collection = true
log_level = "debug"
`)
	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer"}}},"key_properties":["id"]}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"STATE","value":{"users":1}}`,
	}, "\n") + "\n"

	stdout, stderr, err := execute(t, input, cfg)
	if err != nil {
		t.Fatalf("run: %v\nstderr:\n%s", err, stderr)
	}
	if stdout != "{\"users\":1}\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	tbl, ok := memory.Shared().Table("cli_run", "users")
	if !ok || len(tbl.Rows) != 1 {
		t.Fatalf("users table = %+v, %v", tbl, ok)
	}
	if !strings.Contains(stderr, "completed") {
		t.Fatalf("stderr missing completion log: %q", stderr)
	}
}

func TestRoot_MalformedInputFails(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "config.json", `{"dataset_id":"cli_bad","storage":"memory","disable_collection":true}`)
	stdout, _, err := execute(t, "{not json}\n", "-c", cfg)
	if !runerr.Is(err, runerr.KindMalformedInput) {
		t.Fatalf("err = %v, want malformed input", err)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want nothing", stdout)
	}
}

func TestDDLCommand(t *testing.T) {
	t.Parallel()

	msg := writeFile(t, "users.json", `{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer"},"name":{"type":["null","string"]}}},"key_properties":["id"]}`)
	out, _, err := execute(t, "", "ddl", "--kind", "postgres", "--dataset", "raw", msg)
	if err != nil {
		t.Fatalf("ddl: %v", err)
	}
	for _, want := range []string{"CREATE TABLE", "users", "id", "name"} {
		if !strings.Contains(out, want) {
			t.Fatalf("ddl output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDDL(t *testing.T) {
	t.Parallel()

	bare := []byte(`{"type":"object","properties":{"id":{"type":"integer"}}}`)
	tests := []struct {
		name    string
		opts    ddlOptions
		wantErr bool
	}{
		{"bare schema", ddlOptions{kind: "sqlite", dataset: "raw", table: "t"}, false},
		{"missing table", ddlOptions{kind: "sqlite", dataset: "raw"}, true},
		{"kind without ddl", ddlOptions{kind: "memory", dataset: "raw", table: "t"}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := renderDDL(tt.opts, bare)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
