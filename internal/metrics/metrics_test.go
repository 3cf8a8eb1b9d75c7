package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue はレジストリから指定メトリクスの合計値を取り出すヘルパー。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	var sum float64
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				sum += m.GetCounter().GetValue()
			}
			if m.GetGauge() != nil {
				sum += m.GetGauge().GetValue()
			}
		}
		return sum
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordCacheHit_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit("feed")
	c.RecordCacheHit("feed")
	c.RecordCacheMiss("sentiment")

	if got := counterValue(t, reg, "newsaura_cache_hits_total"); got != 2 {
		t.Errorf("cache_hits_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "newsaura_cache_misses_total"); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
}

func TestRecordUpstreamRequest_ByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamRequest("success")
	c.RecordUpstreamRequest("transient")
	c.RecordUpstreamLatency(120 * time.Millisecond)

	if got := counterValue(t, reg, "newsaura_upstream_requests_total"); got != 2 {
		t.Errorf("upstream_requests_total = %v, want 2", got)
	}
}

func TestRecordArticlesNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordArticlesNormalized(5, 2)

	if got := counterValue(t, reg, "newsaura_articles_normalized_total"); got != 5 {
		t.Errorf("articles_normalized_total = %v, want 5", got)
	}
	if got := counterValue(t, reg, "newsaura_articles_dropped_total"); got != 2 {
		t.Errorf("articles_dropped_total = %v, want 2", got)
	}
}

func TestSetQuotaRemaining(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetQuotaRemaining(42)

	if got := counterValue(t, reg, "newsaura_upstream_quota_remaining"); got != 42 {
		t.Errorf("upstream_quota_remaining = %v, want 42", got)
	}
}

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSentimentScored(true)

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "newsaura_sentiment_scored_total") {
		t.Error("response should contain newsaura_sentiment_scored_total")
	}
}
