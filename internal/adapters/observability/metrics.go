package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lpstays", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpstays", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lpstays", Name: "search_requests_total", Help: "Outbound booking-site requests."},
		[]string{"endpoint", "status"},
	)
	SearchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpstays", Name: "search_request_duration_seconds",
			Help:    "Outbound booking-site request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	ExpansionRounds = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "lpstays", Name: "expansion_rounds_total", Help: "Window-expander rounds run."},
	)
	OffersFetched = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "lpstays", Name: "offers_fetched_total", Help: "Offers returned by retrieval rounds."},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lpstays", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, SearchRequests, SearchLatency,
		ExpansionRounds, OffersFetched, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSearch(endpoint string, status int, dur time.Duration) {
	SearchRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	SearchLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

func ObserveRound(offers int) {
	ExpansionRounds.Inc()
	OffersFetched.Add(float64(offers))
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
