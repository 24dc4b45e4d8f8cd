package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_upstream_calls_total",
			Help: "Total outbound calls to the weather and geocoding APIs",
		},
		[]string{"source", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherwidget_upstream_latency_seconds",
			Help:    "Outbound API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_cache_lookups_total",
			Help: "Cache lookups at mount, by result (hit or miss)",
		},
		[]string{"result"},
	)

	WidgetErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_errors_total",
			Help: "Errors recorded in the widget error log",
		},
		[]string{"source"},
	)
)
