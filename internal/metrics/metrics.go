// Package metrics provides Prometheus metrics for the mealminder API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal tracks handled requests by route pattern and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mealminder",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// RecipesCreatedTotal counts stored recipes
	RecipesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "recipes",
			Name:      "created_total",
			Help:      "Total number of recipes created",
		},
	)

	// RecipeExtractionsTotal counts server-side page extractions by outcome
	RecipeExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "recipes",
			Name:      "extractions_total",
			Help:      "Total number of recipe page extractions",
		},
		[]string{"status"},
	)

	// PriceComparisonsTotal counts compare-prices requests answered
	PriceComparisonsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "products",
			Name:      "price_comparisons_total",
			Help:      "Total number of price comparisons served",
		},
	)

	// PriceListRowsTotal counts imported price list rows by outcome
	PriceListRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "catalog",
			Name:      "price_list_rows_total",
			Help:      "Total number of price list rows imported",
		},
		[]string{"outcome"},
	)

	// CheckoutsTotal counts shopping list checkouts
	CheckoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "shopping",
			Name:      "checkouts_total",
			Help:      "Total number of shopping lists checked out",
		},
	)

	// OrderRevenueCents tracks order value passed to suppliers
	OrderRevenueCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "shopping",
			Name:      "order_revenue_cents_total",
			Help:      "Total order value in cents by supplier",
		},
		[]string{"supplier_id"},
	)

	// OAuthLinksTotal counts completed supplier OAuth handshakes
	OAuthLinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealminder",
			Subsystem: "oauth",
			Name:      "links_total",
			Help:      "Total number of supplier OAuth callbacks by outcome",
		},
		[]string{"provider", "status"},
	)
)

// Middleware records request counts and latency labelled with the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi pattern, or "unmatched" for unrouted requests.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
