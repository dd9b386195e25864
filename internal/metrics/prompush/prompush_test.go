package prompush

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"moviesetl/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend_RequiresGatewayURL(t *testing.T) {
	if _, err := NewBackend("movies", ""); err == nil {
		t.Fatal("want error for empty gateway URL")
	}
	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "moviesetl" {
		t.Fatalf("jobName = %q, want default", b.jobName)
	}
}

func TestIncCounter_RoutesByName(t *testing.T) {
	b, err := NewBackend("movies", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "reconcile", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 42, metrics.Labels{"kind": "processed"})
	b.IncCounter(metrics.BatchesTotal, 3, nil)
	b.IncCounter("unknown_metric", 99, nil)

	if got := counterValue(t, b.stepCounter.WithLabelValues("reconcile", "success")); got != 1 {
		t.Errorf("step counter = %v", got)
	}
	if got := counterValue(t, b.rowCounter.WithLabelValues("processed")); got != 42 {
		t.Errorf("row counter = %v", got)
	}
	if got := counterValue(t, b.batchCounter); got != 3 {
		t.Errorf("batch counter = %v", got)
	}
}

func TestFlush_PushesToGateway(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("movies", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "processed"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if gotPath != "/metrics/job/movies" {
		t.Fatalf("push path = %q", gotPath)
	}
}
