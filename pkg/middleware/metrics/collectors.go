package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dq_http_response_seconds",
			Help:    "http response time.",
			Buckets: []float64{0.05, 0.25, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"method"},
	)

	totalHttpRequestsFromRole = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dq_http_requests_from_role_total", Help: "http requests from role"},
		[]string{"role"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dq_http_requests_total", Help: "http requests by code, uri and method"},
		[]string{"code", "uri", "method"},
	)

	itemRenderSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dq_item_render_seconds",
			Help:    "time spent producing one data quality item.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"package", "item"},
	)

	itemRenderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dq_item_render_failures_total", Help: "data quality items that returned an error"},
		[]string{"package", "item"},
	)

	pageRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dq_page_renders_total", Help: "data quality page renders by outcome"},
		[]string{"package", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsFromRole,
		totalHttpRequests,
		itemRenderSeconds,
		itemRenderFailures,
		pageRenders,
	)
}
