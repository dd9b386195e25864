package datadog

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"moviesetl/internal/metrics"
)

// fakeSubmitter captures submitted payloads instead of doing HTTP.
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newTestBackend(t *testing.T, fake *fakeSubmitter) *Backend {
	t.Helper()
	t.Setenv("ENV", "")
	t.Setenv("DD_ENV", "")
	b, err := NewBackend(context.Background(), Options{
		JobName:    "movies",
		FlushEvery: time.Hour,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		newTicker:  func(d time.Duration) *time.Ticker { return time.NewTicker(time.Hour) },
		submitter:  fake,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}

func seriesByMetric(p datadogV2.MetricPayload) map[string]datadogV2.MetricSeries {
	out := make(map[string]datadogV2.MetricSeries, len(p.Series))
	for _, s := range p.Series {
		out[s.Metric] = s
	}
	return out
}

func TestFlush_SubmitsBufferedAndResets(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer func() { _ = b.Close() }()

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "reconcile", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 42, metrics.Labels{"kind": "processed"})
	b.IncCounter(metrics.BatchesTotal, 2, nil)
	b.ObserveHistogram(metrics.StepDuration, 1.5, metrics.Labels{"step": "reconcile", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 1 {
		t.Fatalf("payloads = %d, want 1", fake.count())
	}

	got := seriesByMetric(fake.payloads[0])
	step, ok := got["moviesetl.step.total"]
	if !ok {
		t.Fatal("missing step series")
	}
	if *step.Points[0].Value != 1 {
		t.Errorf("step value = %v", *step.Points[0].Value)
	}
	wantTags := []string{"env:unknown", "job:movies", "step:reconcile", "status:success"}
	if !reflect.DeepEqual(step.Tags, wantTags) {
		t.Errorf("step tags = %v, want %v", step.Tags, wantTags)
	}
	if rows := got["moviesetl.rows.total"]; *rows.Points[0].Value != 42 {
		t.Errorf("rows value = %v", *rows.Points[0].Value)
	}
	if _, ok := got["moviesetl.step.duration_seconds.p50"]; !ok {
		t.Error("missing duration percentile series")
	}
	if ts := *got["moviesetl.batches.total"].Points[0].Timestamp; ts != 1700000000 {
		t.Errorf("timestamp = %d", ts)
	}

	// Second flush with no new data submits nothing.
	if err := b.Flush(); err != nil {
		t.Fatalf("empty Flush: %v", err)
	}
	if fake.count() != 1 {
		t.Fatalf("empty flush submitted a payload")
	}
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer func() { _ = b.Close() }()

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 0 {
		t.Fatalf("payloads = %d, want 0", fake.count())
	}
}

func TestClose_FinalFlush(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)

	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": "upserted"})
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fake.count() != 1 {
		t.Fatalf("payloads = %d, want final flush", fake.count())
	}
}

func TestIncCounter_IgnoresUnknownAndNonPositive(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer func() { _ = b.Close() }()

	b.IncCounter("other_metric", 5, nil)
	b.IncCounter(metrics.RowsTotal, 0, metrics.Labels{"kind": "processed"})
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": ""})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 0 {
		t.Fatalf("unexpected submission: %+v", fake.payloads)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentileNearestRank(s, 0.5); got != 6 {
		t.Errorf("p50 = %v", got)
	}
	if got := percentileNearestRank(s, 0); got != 1 {
		t.Errorf("p0 = %v", got)
	}
	if got := percentileNearestRank(s, 1); got != 10 {
		t.Errorf("p100 = %v", got)
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Errorf("empty = %v", got)
	}
}

func TestParseTagsCSV(t *testing.T) {
	got := ParseTagsCSV(" env:prod, service:movies ,,")
	want := []string{"env:prod", "service:movies"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTagsCSV = %v", got)
	}
	if ParseTagsCSV("") != nil {
		t.Fatal("empty input should return nil")
	}
}
