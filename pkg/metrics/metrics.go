// Package metrics declares the Prometheus collectors exported on the metrics port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocketledger_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pocketledger_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ChatIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocketledger_chat_intents_total",
		Help: "Chat messages by resolved intent (none means AI fallback).",
	}, []string{"intent"})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocketledger_ai_requests_total",
		Help: "Calls to the external model by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	ExtractedCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocketledger_extracted_candidates_total",
		Help: "Transaction candidates produced per extraction strategy.",
	}, []string{"strategy"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
