package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementProfilesCreated()
	m.IncrementProfilesCreated()
	m.IncrementStatusChange("enabled")
	m.RecordParse(true)
	m.RecordParse(false)
	m.RecordImported("csv", 3)
	m.RecordImported("csv", 0)
	m.RecordSkipped("csv", "Missing ICCID")
	m.ObserveImport("csv", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProfilesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfileTransitions.WithLabelValues("enabled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CertificateParses.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportedProfiles.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedProfiles.WithLabelValues("csv", "Missing ICCID")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementProfilesCreated()
		m.IncrementStatusChange("disabled")
		m.IncrementCertificatesCreated()
		m.RecordParse(true)
		m.RecordImported("json", 1)
		m.RecordSkipped("json", "Already exists")
		m.ObserveRequest("GET", "/api/stats", 200, time.Millisecond)
		m.ObserveImport("json", time.Now())
	})
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/profiles/{id}", 404, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/profiles/{id}", 404, 7*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequests))
}
