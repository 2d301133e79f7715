package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestsTotal 的 route 用路由模板（/links/:code），不能用真实路径，否则 label 无限增长。
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations：负缓存的访问结果。
	//
	// labels：
	// - layer：l1(ristretto) / l2(redis)
	// - result：hit / miss / error
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_cache_operations_total",
			Help: "Negative cache lookups by layer and result.",
		},
		[]string{"layer", "result"},
	)

	// LinksCreated：创建成功的短链数，kind 为 random / alias / pack。
	LinksCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Links created by creation path.",
		},
		[]string{"kind"},
	)

	// LinkRedirects：成功跳转次数（即 clicks 的总和）。
	LinkRedirects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_redirects_total",
			Help: "Successful short code resolutions.",
		},
	)

	// LinkConflicts：短码冲突次数，op 为 shorten / alias / pack。
	// shorten 的冲突会被重试吸收，这里仍然计数，用来观察码空间的拥挤程度。
	LinkConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_code_conflicts_total",
			Help: "Short code collisions by operation.",
		},
		[]string{"op"},
	)
)

// Init 把全部指标注册到默认 registry，重复调用无副作用。
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			CacheOperations,
			LinksCreated,
			LinkRedirects,
			LinkConflicts,
		)
	})
}
