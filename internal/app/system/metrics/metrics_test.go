package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMiddleware_ExposesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/domains/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", promhttp.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/domains/abc123", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	metrics.RecordDecision("read_domain", false)
	metrics.RecordTransition("remediated")
	metrics.RecordReview("approved", 2, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`route="/domains/{id}"`,
		`crossfeed_authz_decisions_total{action="read_domain",outcome="deny"}`,
		`crossfeed_vulnerability_transitions_total{substate="remediated"}`,
		`crossfeed_domain_reviews_total{result="updated",status="approved"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
	if strings.Contains(body, "abc123") {
		t.Error("raw path leaked into metric labels")
	}
}
