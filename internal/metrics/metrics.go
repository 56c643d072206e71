package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gestion_scolaire"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Processed HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Handler errors answered with 5xx",
	})
	DocumentsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "documents_generated_total", Help: "Generated PDF and Excel documents",
	}, []string{"kind"})
	GradesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "grades_written_total", Help: "Grade upserts and edits",
	})
	RankingCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "ranking_cache_total", Help: "Ranking cache lookups",
	}, []string{"result"})
	UsersByRole = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "users", Help: "Active users by role",
	}, []string{"role"})
	GradesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "grades", Help: "Stored grade rows",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
	// JobRuns counts background job runs by outcome.
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_runs_total", Help: "Background job runs",
	}, []string{"job", "outcome"})
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "job_duration_seconds", Help: "Background job duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPDuration, HandlerErrors, DocumentsGenerated,
		GradesWritten, RankingCache, UsersByRole, GradesTotal, DBPing,
		JobRuns, JobDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveJob(name, outcome string, d time.Duration) {
	JobRuns.WithLabelValues(name, outcome).Inc()
	JobDuration.WithLabelValues(name).Observe(d.Seconds())
}
