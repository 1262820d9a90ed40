// Package metrics declares the Prometheus collectors shared by the generator,
// the HTTP server and the map service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepmap_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepmap_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepmap_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"provider", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepmap_llm_request_duration_seconds",
		Help:    "LLM request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"provider"})

	TreesBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepmap_trees_built_total",
		Help: "Level one trees built",
	})

	TreesExpandedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepmap_trees_expanded_total",
		Help: "Trees expanded one level deeper",
	})

	LeavesExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deepmap_leaves_expanded",
		Help:    "Number of leaves expanded per go-deeper call",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
