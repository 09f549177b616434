package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry service.
type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	Verifications       *prometheus.CounterVec
	LookupDuration      *prometheus.HistogramVec
	CacheHits           *prometheus.CounterVec
	CacheMisses         *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eduledger_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		CertificatesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eduledger_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eduledger_verifications_total",
			Help: "Total verification queries by lookup path and result",
		}, []string{"path", "result"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eduledger_lookup_duration_seconds",
			Help:    "Registry store lookup latency by lookup path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eduledger_cache_hits_total",
			Help: "Verification cache hits by lookup path",
		}, []string{"path"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eduledger_cache_misses_total",
			Help: "Verification cache misses by lookup path",
		}, []string{"path"}),
	}
}

func (m *Metrics) IncIssued() {
	if m == nil {
		return
	}
	m.CertificatesIssued.Inc()
}

func (m *Metrics) IncRevoked() {
	if m == nil {
		return
	}
	m.CertificatesRevoked.Inc()
}

// RecordVerification counts one verification by lookup path ("id" or "hash")
// and result ("valid", "revoked", "not_found").
func (m *Metrics) RecordVerification(path, result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(path, result).Inc()
}

func (m *Metrics) ObserveLookupDuration(path string, seconds float64) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(path).Observe(seconds)
}

func (m *Metrics) RecordCacheHit(path string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(path).Inc()
}

func (m *Metrics) RecordCacheMiss(path string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(path).Inc()
}
