// Package metrics exposes Prometheus metrics for the contact service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contact",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

var (
	// SubmissionsTotal counts contact submissions by outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Total number of contact form submissions by outcome",
		},
		[]string{"outcome"},
	)

	// SpamVerdictsTotal counts spam guard verdicts.
	SpamVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Subsystem: "form",
			Name:      "spam_verdicts_total",
			Help:      "Total number of spam guard verdicts by kind",
		},
		[]string{"verdict"},
	)

	// CaptchaVerificationsTotal counts CAPTCHA verification results.
	CaptchaVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Subsystem: "captcha",
			Name:      "verifications_total",
			Help:      "Total number of CAPTCHA verifications by result",
		},
		[]string{"result"},
	)

	// MailDeliveryDuration measures mail dispatch duration in seconds.
	MailDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contact",
			Subsystem: "mail",
			Name:      "delivery_duration_seconds",
			Help:      "Mail delivery duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	// MailDeliveriesTotal counts mail dispatch attempts by result.
	MailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Subsystem: "mail",
			Name:      "deliveries_total",
			Help:      "Total number of mail deliveries by result",
		},
		[]string{"result"},
	)
)

// Middleware records request counts and latencies for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
