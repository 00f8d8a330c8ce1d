package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_results_total",
			Help: "Quiz results produced, by level",
		},
		[]string{"level"},
	)

	SubmissionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submission_failures_total",
			Help: "Rejected or failed quiz submissions, by reason",
		},
		[]string{"reason"},
	)

	CatalogFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_catalog_fallbacks_total",
			Help: "Recommendation catalogs replaced by an empty list",
		},
		[]string{"catalog"},
	)

	ReportPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_report_pages",
			Help:    "Pages per rendered quiz report",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{ResultsTotal, SubmissionFailures, CatalogFallbacks, ReportPages, RequestDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Middleware records request durations under the given route label.
func Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
