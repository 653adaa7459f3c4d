package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestTracker_Sequences(t *testing.T) {
	t.Parallel()

	type step struct {
		state  string // observe when non-empty
		record bool   // invalidate
	}
	tests := []struct {
		name  string
		steps []step
		want  string
	}{
		{"state record state", []step{{state: `{"c":1}`}, {record: true}, {state: `{"c":2}`}}, `{"c":2}`},
		{"state record", []step{{state: `{"c":1}`}, {record: true}}, ""},
		{"state state", []step{{state: `{"c":1}`}, {state: `{"c":2}`}}, `{"c":2}`},
		{"records only", []step{{record: true}, {record: true}}, ""},
		{"nothing", nil, ""},
		{"null state is still a state", []step{{state: `null`}}, `null`},
	}
	for _, tt := range tests {
		var tr Tracker
		for _, s := range tt.steps {
			if s.record {
				tr.Invalidate()
				continue
			}
			tr.Observe(json.RawMessage(s.state))
		}
		got, ok := tr.Pending()
		if tt.want == "" {
			if ok {
				t.Errorf("%s: pending = %s, want none", tt.name, got)
			}
			continue
		}
		if !ok || string(got) != tt.want {
			t.Errorf("%s: pending = %s (%v), want %s", tt.name, got, ok, tt.want)
		}
	}
}

func TestTracker_ObserveCopies(t *testing.T) {
	t.Parallel()

	buf := []byte(`{"c":1}`)
	var tr Tracker
	tr.Observe(buf)
	copy(buf, `{"c":9}`)
	got, _ := tr.Pending()
	if string(got) != `{"c":1}` {
		t.Fatalf("pending aliased caller buffer: %s", got)
	}
}

func TestEmit_CompactsAndTerminates(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := Emit(&out, json.RawMessage("{ \"users\" : 2 }")); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got, want := out.String(), "{\"users\":2}\n"; got != want {
		t.Fatalf("Emit wrote %q, want %q", got, want)
	}
}

func TestEmit_FlushesBufferedWriter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	bw := bufio.NewWriterSize(&out, 4096)
	if err := Emit(bw, json.RawMessage(`{"a":[1,2]}`)); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if out.String() != "{\"a\":[1,2]}\n" {
		t.Fatalf("buffered writer not flushed, underlying = %q", out.String())
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestEmit_Errors(t *testing.T) {
	t.Parallel()

	if err := Emit(&bytes.Buffer{}, json.RawMessage(`{bad`)); err == nil {
		t.Errorf("expected compact error")
	}
	if err := Emit(failWriter{}, json.RawMessage(`{}`)); err == nil {
		t.Errorf("expected write error")
	}
}
