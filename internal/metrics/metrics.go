package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursesched",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	schedulesGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursesched",
			Name:      "schedules_generated",
			Help:      "Number of schedules returned per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	searchesCapped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coursesched",
			Name:      "searches_capped_total",
			Help:      "Count of searches cut short by the schedule cap.",
		},
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursesched",
			Name:      "search_duration_seconds",
			Help:      "Time spent generating schedules.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	catalogLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursesched",
			Name:      "catalog_lookups_total",
			Help:      "Count of catalog lookups by backend and result.",
		},
		[]string{"backend", "result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, schedulesGenerated, searchesCapped, searchDuration, catalogLookups)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveSearch records one finished schedule search.
func ObserveSearch(count int, capped bool, took time.Duration) {
	schedulesGenerated.Observe(float64(count))
	searchDuration.Observe(took.Seconds())
	if capped {
		searchesCapped.Inc()
	}
}

// IncCatalogLookup counts a lookup; result is one of "hit", "miss", "error" or "cached".
func IncCatalogLookup(backend, result string) {
	catalogLookups.WithLabelValues(backend, result).Inc()
}
