package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chameleon_http_requests_total",
		Help: "HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chameleon_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// dailyFinished counts finished daily games. Labels: "won", "lost".
	dailyFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chameleon_daily_finished_total",
		Help: "Finished daily challenge games by result",
	}, []string{"result"})
)
