// Package metrics Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal 上游请求次数，按接口和结果区分
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dramabox_upstream_requests_total",
		Help: "Total number of catalog API requests, by operation and outcome.",
	}, []string{"op", "outcome"})

	// UpstreamRequestDuration 上游请求耗时
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dramabox_upstream_request_duration_seconds",
		Help:    "Catalog API request latency, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// UpstreamUp 最近一次探测是否成功
	UpstreamUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dramabox_upstream_up",
		Help: "1 if the last catalog API probe succeeded.",
	})

	// ProgressWritesTotal 播放进度上报，按是否写入区分
	ProgressWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dramabox_progress_writes_total",
		Help: "Playback progress reports, by result (saved/throttled/rejected).",
	}, []string{"result"})

	// WatchStatePrunedTotal 定时清理删除的记录数
	WatchStatePrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dramabox_watch_state_pruned_total",
		Help: "Stale continue-watching records removed by the prune job.",
	})
)

// ObserveUpstream 记录一次上游请求
func ObserveUpstream(op, outcome string, started time.Time) {
	UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
