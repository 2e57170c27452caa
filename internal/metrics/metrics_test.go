package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("reading metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestScanLifecycle(t *testing.T) {
	r := New()

	done := r.ScanStarted()
	if got := value(t, r.ActiveScans); got != 1 {
		t.Errorf("expected 1 active scan, got %v", got)
	}
	done("DONE", 3)

	if got := value(t, r.ActiveScans); got != 0 {
		t.Errorf("expected 0 active scans, got %v", got)
	}
	if got := value(t, r.Scans.WithLabelValues("DONE")); got != 1 {
		t.Errorf("expected 1 DONE scan, got %v", got)
	}
	if got := value(t, r.Recommendations); got != 3 {
		t.Errorf("expected 3 recommendations, got %v", got)
	}
}

func TestCountersAndHandler(t *testing.T) {
	r := New()
	r.CandidatesGenerated(10)
	r.CandidateRejected("risk")
	r.CandidateRejected("risk")
	r.SentimentLookup(true, 70)
	r.SentimentLookup(false, 65)
	r.VIXFallbackUsed()

	if got := value(t, r.CandidatesBuilt); got != 10 {
		t.Errorf("expected 10 candidates, got %v", got)
	}
	if got := value(t, r.CandidatesRejected.WithLabelValues("risk")); got != 2 {
		t.Errorf("expected 2 risk rejections, got %v", got)
	}
	if got := value(t, r.SentimentScore); got != 65 {
		t.Errorf("expected last sentiment 65, got %v", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"spyfly_candidates_built_total", "spyfly_sentiment_cache_total", "spyfly_vix_fallbacks_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ScanStarted()("DONE", 0)
	r.CandidatesGenerated(1)
	r.CandidateRejected("x")
	r.SentimentLookup(true, 1)
	r.VIXFallbackUsed()
	if r.Registry() != nil {
		t.Error("nil recorder has no registry")
	}
}
