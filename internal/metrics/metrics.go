// Package metrics provides Prometheus instrumentation for the fraud
// analysis service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudsentry",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudsentry",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AnalysesTotal counts completed fraud analyses by decision.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudsentry",
			Name:      "analyses_total",
			Help:      "Total fraud analyses completed, by decision.",
		},
		[]string{"decision"},
	)

	// AnalysisMethodTotal counts analyses by the path that answered.
	AnalysisMethodTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudsentry",
			Name:      "analysis_method_total",
			Help:      "Total analyses by method (multi-agent or fallback).",
		},
		[]string{"method"},
	)

	// FallbacksTotal counts analyses that degraded to the fallback scorer.
	FallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudsentry",
		Name:      "fallbacks_total",
		Help:      "Total analyses answered by the rule-based fallback.",
	})

	// AnalysisFailuresTotal counts analyses where both paths failed.
	AnalysisFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudsentry",
		Name:      "analysis_failures_total",
		Help:      "Total analyses where primary and fallback both failed.",
	})

	// AnalysisDuration observes end-to-end analysis latency by method.
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudsentry",
			Name:      "analysis_duration_seconds",
			Help:      "Fraud analysis duration in seconds, by method.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	// LedgerRecords tracks the number of records loaded from the fraud ledger.
	LedgerRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "ledger_records",
		Help: "Number of records loaded from the fraud ledger.",
	})
	// LedgerBlacklistSize tracks the number of blacklisted customers.
	LedgerBlacklistSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "ledger_blacklist_size",
		Help: "Number of customers on the confirmed-fraud blacklist.",
	})
	// LedgerMeanAmount tracks the mean historical fraud amount.
	LedgerMeanAmount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "ledger_mean_amount",
		Help: "Mean transaction amount across ledger records.",
	})

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudsentry", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisMethodTotal,
		FallbacksTotal,
		AnalysisFailuresTotal,
		AnalysisDuration,
		LedgerRecords,
		LedgerBlacklistSize,
		LedgerMeanAmount,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// SetLedgerStats publishes the loaded ledger's headline numbers.
func SetLedgerStats(records, blacklisted int, meanAmount float64) {
	LedgerRecords.Set(float64(records))
	LedgerBlacklistSize.Set(float64(blacklisted))
	LedgerMeanAmount.Set(meanAmount)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
