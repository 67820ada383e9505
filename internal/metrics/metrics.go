package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations counts access layer calls by entity kind, operation and
	// outcome code ("OK" or a domain error code).
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metering",
		Name:      "operations_total",
		Help:      "Access layer operations by kind, operation and outcome.",
	}, []string{"kind", "op", "code"})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "metering",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	IngestedReadings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metering",
		Name:      "ingested_readings_total",
		Help:      "Meter readings received over MQTT by outcome code.",
	}, []string{"code"})
)
