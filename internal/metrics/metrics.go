// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no license ids or addresses.
var (
	LedgerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_ledger_calls_total",
			Help: "Ledger calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	LedgerCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "licensechain_ledger_call_latency_ms",
			Help:    "Ledger call latency in milliseconds",
			Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 15000},
		},
		[]string{"method"},
	)

	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_document_uploads_total",
			Help: "Document uploads by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	DocumentUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "licensechain_document_upload_bytes",
			Help:    "Size of uploaded documents",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_admin_actions_total",
			Help: "Admin actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	ApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_applications_total",
			Help: "Application submissions by outcome",
		},
		[]string{"outcome"},
	)

	RenewalRemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_renewal_reminders_total",
			Help: "Renewal reminder emails by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_rate_limited_total",
			Help: "Requests refused by a rate limiter, by limiter",
		},
		[]string{"limiter"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensechain_events_published_total",
			Help: "License events published by outcome",
		},
		[]string{"outcome"},
	)
)

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordLedgerCall(method string, start time.Time, err error) {
	LedgerCallsTotal.WithLabelValues(method, Outcome(err)).Inc()
	LedgerCallLatency.WithLabelValues(method).Observe(float64(time.Since(start).Milliseconds()))
}

func RecordUpload(backend string, size int64, err error) {
	DocumentUploadsTotal.WithLabelValues(backend, Outcome(err)).Inc()
	if err == nil && size > 0 {
		DocumentUploadBytes.Observe(float64(size))
	}
}

func RecordAdminAction(action string, err error) {
	AdminActionsTotal.WithLabelValues(action, Outcome(err)).Inc()
}

func RecordApplication(err error) {
	ApplicationsTotal.WithLabelValues(Outcome(err)).Inc()
}

func RecordRenewalReminder(err error) {
	RenewalRemindersTotal.WithLabelValues(Outcome(err)).Inc()
}

func RecordEventPublished(err error) {
	EventsPublishedTotal.WithLabelValues(Outcome(err)).Inc()
}

func RecordRateLimited(limiter string) {
	RateLimitedTotal.WithLabelValues(limiter).Inc()
}
