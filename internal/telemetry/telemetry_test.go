package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"bqtarget/internal/logger"
)

func TestSend_Params(t *testing.T) {
	t.Parallel()

	got := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		got <- r.URL.Query()
	}))
	defer srv.Close()

	if err := Send(context.Background(), Config{URL: srv.URL + "/i", Version: "1.2.3"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	q := <-got
	want := map[string]string{"e": "se", "aid": "singer", "se_ca": "target-bigquery", "se_ac": "open", "se_la": "1.2.3"}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("param %s = %q, want %q", k, q.Get(k), v)
		}
	}
	if q.Get("eid") == "" {
		t.Errorf("missing eid")
	}
}

func TestSend_RetriesThenFails(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := Send(context.Background(), Config{URL: srv.URL, RetryMax: 1, Logger: logger.NewLogfLogger(t)})
	if err == nil {
		t.Fatalf("Send succeeded against a failing collector")
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("hits = %d, want 2", n)
	}
}

func TestStart_SwallowsFailures(t *testing.T) {
	t.Parallel()

	done := Start(context.Background(), Config{URL: "http://127.0.0.1:1/i", Timeout: time.Second})
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("telemetry goroutine did not finish")
	}
}
