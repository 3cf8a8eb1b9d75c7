// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フィード組み立てサービスや上流アダプタから利用する。
type MetricsCollector interface {
	RecordCacheHit(namespace string)
	RecordCacheMiss(namespace string)
	RecordUpstreamRequest(outcome string)
	RecordUpstreamLatency(duration time.Duration)
	RecordArticlesNormalized(kept, dropped int)
	RecordSentimentScored(fromCache bool)
	RecordSingleflightShared()
	RecordSummary(provenance string)
	SetQuotaRemaining(remaining int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	upstreamRequests   *prometheus.CounterVec
	upstreamLatency    prometheus.Histogram
	articlesNormalized prometheus.Counter
	articlesDropped    prometheus.Counter
	sentimentScored    *prometheus.CounterVec
	singleflightShared prometheus.Counter
	summaries          *prometheus.CounterVec
	quotaRemaining     prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsaura_cache_hits_total",
			Help: "名前空間別のキャッシュヒット数",
		}, []string{"namespace"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsaura_cache_misses_total",
			Help: "名前空間別のキャッシュミス数",
		}, []string{"namespace"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsaura_upstream_requests_total",
			Help: "結果別の上流ニュースプロバイダ呼び出し数",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsaura_upstream_latency_seconds",
			Help:    "上流フェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		articlesNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsaura_articles_normalized_total",
			Help: "正規化に成功した記事の合計数",
		}),
		articlesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsaura_articles_dropped_total",
			Help: "タイトル/URL欠落により破棄した記事の合計数",
		}),
		sentimentScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsaura_sentiment_scored_total",
			Help: "供給元別（cache/model）のセンチメントスコアリング数",
		}, []string{"source"}),
		singleflightShared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsaura_singleflight_shared_total",
			Help: "リーダーの結果がフォロワーに共有された回数",
		}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsaura_summaries_total",
			Help: "由来別の要約応答数",
		}, []string{"provenance"}),
		quotaRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsaura_upstream_quota_remaining",
			Help: "当日の上流API残りクォータ",
		}),
	}

	reg.MustRegister(
		c.cacheHits,
		c.cacheMisses,
		c.upstreamRequests,
		c.upstreamLatency,
		c.articlesNormalized,
		c.articlesDropped,
		c.sentimentScored,
		c.singleflightShared,
		c.summaries,
		c.quotaRemaining,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを名前空間別に記録する。
func (c *Collector) RecordCacheHit(namespace string) {
	c.cacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss はキャッシュミスを名前空間別に記録する。
func (c *Collector) RecordCacheMiss(namespace string) {
	c.cacheMisses.WithLabelValues(namespace).Inc()
}

// RecordUpstreamRequest は上流呼び出しを結果別に記録する。
// outcome: success, transient, quota_exceeded, invalid_response
func (c *Collector) RecordUpstreamRequest(outcome string) {
	c.upstreamRequests.WithLabelValues(outcome).Inc()
}

// RecordUpstreamLatency は上流フェッチのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordArticlesNormalized は正規化の結果（採用/破棄件数）を記録する。
func (c *Collector) RecordArticlesNormalized(kept, dropped int) {
	c.articlesNormalized.Add(float64(kept))
	c.articlesDropped.Add(float64(dropped))
}

// RecordSentimentScored はセンチメントスコアリングを供給元別に記録する。
func (c *Collector) RecordSentimentScored(fromCache bool) {
	if fromCache {
		c.sentimentScored.WithLabelValues("cache").Inc()
	} else {
		c.sentimentScored.WithLabelValues("model").Inc()
	}
}

// RecordSingleflightShared はフォロワーへの結果共有を記録する。
func (c *Collector) RecordSingleflightShared() {
	c.singleflightShared.Inc()
}

// RecordSummary は要約応答を由来別に記録する。
func (c *Collector) RecordSummary(provenance string) {
	c.summaries.WithLabelValues(provenance).Inc()
}

// SetQuotaRemaining は当日の残りクォータを記録する。
func (c *Collector) SetQuotaRemaining(remaining int) {
	c.quotaRemaining.Set(float64(remaining))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// Nop は何も記録しないMetricsCollector。メトリクスが不要なテストで使用する。
type Nop struct{}

func (Nop) RecordCacheHit(string)             {}
func (Nop) RecordCacheMiss(string)            {}
func (Nop) RecordUpstreamRequest(string)      {}
func (Nop) RecordUpstreamLatency(time.Duration) {}
func (Nop) RecordArticlesNormalized(int, int) {}
func (Nop) RecordSentimentScored(bool)        {}
func (Nop) RecordSingleflightShared()         {}
func (Nop) RecordSummary(string)              {}
func (Nop) SetQuotaRemaining(int)             {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
