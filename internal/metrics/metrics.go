// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 生成器とサービス層から利用する。
type MetricsCollector interface {
	RecordGenerationSuccess()
	RecordGenerationRetry()
	RecordGenerationFallback()
	RecordGenerationLatency(duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	generationSuccess  prometheus.Counter
	generationRetry    prometheus.Counter
	generationFallback prometheus.Counter
	generationLatency  prometheus.Histogram
	cacheHit           prometheus.Counter
	cacheMiss          prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generationSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fortunecrack_generation_success_total",
			Help: "運勢生成成功の合計数",
		}),
		generationRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fortunecrack_generation_retry_total",
			Help: "運勢生成リトライの合計数",
		}),
		generationFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fortunecrack_generation_fallback_total",
			Help: "フォールバック文面が使用された合計数",
		}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fortunecrack_generation_latency_seconds",
			Help:    "運勢生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fortunecrack_cache_hit_total",
			Help: "当日運勢キャッシュヒットの合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fortunecrack_cache_miss_total",
			Help: "当日運勢キャッシュミスの合計数",
		}),
	}

	reg.MustRegister(
		c.generationSuccess,
		c.generationRetry,
		c.generationFallback,
		c.generationLatency,
		c.cacheHit,
		c.cacheMiss,
	)

	return c
}

// RecordGenerationSuccess は生成成功を記録する。
func (c *Collector) RecordGenerationSuccess() {
	c.generationSuccess.Inc()
}

// RecordGenerationRetry は生成リトライを記録する。
func (c *Collector) RecordGenerationRetry() {
	c.generationRetry.Inc()
}

// RecordGenerationFallback はフォールバック使用を記録する。
func (c *Collector) RecordGenerationFallback() {
	c.generationFallback.Inc()
}

// RecordGenerationLatency は生成のレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.generationLatency.Observe(duration.Seconds())
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// Noop は何も記録しないコレクター。メトリクスが不要な構成やテストで使用する。
type Noop struct{}

// RecordGenerationSuccess は何もしない。
func (Noop) RecordGenerationSuccess() {}

// RecordGenerationRetry は何もしない。
func (Noop) RecordGenerationRetry() {}

// RecordGenerationFallback は何もしない。
func (Noop) RecordGenerationFallback() {}

// RecordGenerationLatency は何もしない。
func (Noop) RecordGenerationLatency(time.Duration) {}

// RecordCacheHit は何もしない。
func (Noop) RecordCacheHit() {}

// RecordCacheMiss は何もしない。
func (Noop) RecordCacheMiss() {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Noop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
