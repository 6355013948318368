// Package metrics 定义 Prometheus 指标，全部注册到默认 registry（/metrics 暴露）。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resonance"

var (
	// DroppedInteractionsTotal 统计预处理时因物品不在目录中被丢弃的交互记录。
	DroppedInteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prepare",
		Name:      "dropped_interactions_total",
		Help:      "Interaction records dropped because their item is not in the catalog.",
	}, []string{"kind"})

	SnapshotBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "snapshot_build_duration_seconds",
		Help:      "Time taken to load signals and build the similarity models.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	SnapshotBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "snapshot_builds_total",
		Help:      "Snapshot builds by status.",
	}, []string{"status"})

	RecommendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "recommend_duration_seconds",
		Help:      "Latency of a single recommend call, excluding the first build.",
		Buckets:   prometheus.DefBuckets,
	})

	// RecommendResultsTotal outcome: ok / empty / cold_start / error
	RecommendResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "recommend_results_total",
		Help:      "Recommend calls by outcome.",
	}, []string{"outcome"})

	EnrichedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "items_total",
		Help:      "Items processed by the enrichment pool, by status.",
	}, []string{"status"})

	SummarizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "summarize_duration_seconds",
		Help:      "Time taken by one summarizer call.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	IngestPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "pages_total",
		Help:      "Upstream pages fetched, by resource.",
	}, []string{"resource"})

	IngestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "records_total",
		Help:      "Upstream records stored, by resource.",
	}, []string{"resource"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})
)

// RecordDroppedInteractions 记录被丢弃的交互数。
func RecordDroppedInteractions(kind string, n int) {
	if n > 0 {
		DroppedInteractionsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordSnapshotBuild 记录一次快照构建。
func RecordSnapshotBuild(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	SnapshotBuildsTotal.WithLabelValues(status).Inc()
	SnapshotBuildDuration.Observe(d.Seconds())
}

// RecordRecommend 记录一次推荐调用。
func RecordRecommend(d time.Duration, outcome string) {
	RecommendDuration.Observe(d.Seconds())
	RecommendResultsTotal.WithLabelValues(outcome).Inc()
}

// RecordEnriched status: success / degraded / failure
func RecordEnriched(status string, d time.Duration) {
	EnrichedItemsTotal.WithLabelValues(status).Inc()
	if d > 0 {
		SummarizeDuration.Observe(d.Seconds())
	}
}

// RecordIngestPage 记录一页上游数据。
func RecordIngestPage(resource string, records int) {
	IngestPagesTotal.WithLabelValues(resource).Inc()
	IngestRecordsTotal.WithLabelValues(resource).Add(float64(records))
}

// SetCircuitBreakerState 更新熔断器状态。
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
