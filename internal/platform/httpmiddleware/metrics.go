package httpmiddleware

import (
	"strconv"
	"time"

	"shorty.local/gee"
	"shorty.local/internal/platform/metrics"
)

// Metrics 按路由模板（而不是原始路径）记录请求数和耗时，避免短码把 label 基数撑爆。
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		ctx.Next()

		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, status).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
	}
}
