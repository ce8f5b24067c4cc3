// Package metrics exposes Prometheus collectors for the catalog cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mod-hub/mod-hub/internal/cache"
)

// Recorder 实现 cache.Observer，并持有独立的 Registry，便于多实例测试。
type Recorder struct {
	registry        *prometheus.Registry
	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	sharedTotal     *prometheus.CounterVec
	lookupTotal     *prometheus.CounterVec
}

var _ cache.Observer = (*Recorder)(nil)

// New 创建 Recorder 并注册全部指标。
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modhub",
			Name:      "cache_refresh_total",
			Help:      "Cache refresh executions by region and result.",
		}, []string{"region", "result"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modhub",
			Name:      "cache_refresh_duration_seconds",
			Help:      "Time spent querying the store during a refresh.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"region"}),
		sharedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modhub",
			Name:      "cache_refresh_shared_total",
			Help:      "Callers that received the result of a refresh shared with other callers.",
		}, []string{"region"}),
		lookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modhub",
			Name:      "cache_lookup_total",
			Help:      "Detail lookups by outcome.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(
		r.refreshTotal,
		r.refreshDuration,
		r.sharedTotal,
		r.lookupTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRefresh 记录一次真实执行的刷新。
func (r *Recorder) ObserveRefresh(region cache.Region, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.refreshTotal.WithLabelValues(string(region), result).Inc()
	r.refreshDuration.WithLabelValues(string(region)).Observe(elapsed.Seconds())
}

// ObserveShared 记录复用了他人刷新结果的调用方。
func (r *Recorder) ObserveShared(region cache.Region) {
	r.sharedTotal.WithLabelValues(string(region)).Inc()
}

// ObserveLookup 记录详情查找命中与否。
func (r *Recorder) ObserveLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	r.lookupTotal.WithLabelValues(result).Inc()
}

// Handler 返回 /-/metrics 使用的 HTTP handler。
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
