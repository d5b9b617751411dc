// Package metrics exposes Prometheus collectors for request latency,
// authorization decisions, and resource lifecycle changes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crossfeed_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossfeed_authz_decisions_total",
			Help: "Authorization decisions by action and outcome",
		},
		[]string{"action", "outcome"},
	)
	vulnTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossfeed_vulnerability_transitions_total",
			Help: "Accepted vulnerability substate writes by target substate",
		},
		[]string{"substate"},
	)
	domainReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossfeed_domain_reviews_total",
			Help: "Domains processed by review batches, by target status and result",
		},
		[]string{"status", "result"},
	)
)

// Middleware records request duration keyed by the matched chi route
// pattern, so ids in the path do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// RecordDecision counts one authorization decision.
func RecordDecision(action string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	authzDecisions.WithLabelValues(action, outcome).Inc()
}

// RecordTransition counts one accepted vulnerability write.
func RecordTransition(substate string) {
	vulnTransitions.WithLabelValues(substate).Inc()
}

// RecordReview counts the outcome of a review batch.
func RecordReview(status string, updated, unchanged int) {
	domainReviews.WithLabelValues(status, "updated").Add(float64(updated))
	domainReviews.WithLabelValues(status, "unchanged").Add(float64(unchanged))
}
