// Package metrics provides Prometheus instrumentation for profile and
// certificate operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters and histograms.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ProfilesCreated     prometheus.Counter
	ProfileTransitions  *prometheus.CounterVec
	CertificatesCreated prometheus.Counter
	CertificateParses   *prometheus.CounterVec
	ImportedProfiles    *prometheus.CounterVec
	SkippedProfiles     *prometheus.CounterVec
	ImportDuration      *prometheus.HistogramVec
	HTTPRequests        *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "euicc_profiles_created_total",
			Help: "Total number of profiles created directly through the API",
		}),
		ProfileTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "euicc_profile_status_changes_total",
			Help: "Total number of profile enable/disable operations",
		}, []string{"status"}),
		CertificatesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "euicc_certificates_created_total",
			Help: "Total number of certificates stored",
		}),
		CertificateParses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "euicc_certificate_parses_total",
			Help: "Certificate preview parses by outcome",
		}, []string{"outcome"}),
		ImportedProfiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "euicc_import_profiles_imported_total",
			Help: "Profiles persisted by bulk import, by source",
		}, []string{"source"}),
		SkippedProfiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "euicc_import_profiles_skipped_total",
			Help: "Profiles skipped by bulk import, by source and reason",
		}, []string{"source", "reason"}),
		ImportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "euicc_import_duration_seconds",
			Help:    "Duration of bulk import requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "euicc_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementProfilesCreated records a direct profile creation.
func (m *Metrics) IncrementProfilesCreated() {
	if m == nil {
		return
	}
	m.ProfilesCreated.Inc()
}

// IncrementStatusChange records an enable or disable.
func (m *Metrics) IncrementStatusChange(status string) {
	if m == nil {
		return
	}
	m.ProfileTransitions.WithLabelValues(status).Inc()
}

// IncrementCertificatesCreated records a stored certificate.
func (m *Metrics) IncrementCertificatesCreated() {
	if m == nil {
		return
	}
	m.CertificatesCreated.Inc()
}

// RecordParse records a certificate preview outcome ("ok" or "error").
func (m *Metrics) RecordParse(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.CertificateParses.WithLabelValues(outcome).Inc()
}

// RecordImported adds n persisted profiles for source.
func (m *Metrics) RecordImported(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ImportedProfiles.WithLabelValues(source).Add(float64(n))
}

// RecordSkipped counts one skipped profile for source and reason.
func (m *Metrics) RecordSkipped(source, reason string) {
	if m == nil {
		return
	}
	m.SkippedProfiles.WithLabelValues(source, reason).Inc()
}

// ObserveImport records the duration of an import.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveImport(source string, start time.Time) {
	if m == nil {
		return
	}
	m.ImportDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// ObserveRequest records one served HTTP request. route is the router
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
