package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "menuseed"

// Asset outcomes.
const (
	AssetUploaded     = "uploaded"
	AssetFetchFailed  = "fetch_failed"
	AssetUploadFailed = "upload_failed"
)

// Seed holds the seeding run metrics. A nil *Seed records nothing.
type Seed struct {
	documentsCreated *prometheus.CounterVec
	documentsDeleted *prometheus.CounterVec
	assets           *prometheus.CounterVec
	assetBytes       prometheus.Counter
	phaseDuration    *prometheus.HistogramVec
	runs             *prometheus.CounterVec
	clientRequests   *prometheus.CounterVec
	clientDuration   *prometheus.HistogramVec
}

// New creates the seeding metrics and registers them on reg.
func New(reg prometheus.Registerer) *Seed {
	m := &Seed{
		documentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_created_total",
			Help:      "Documents created, by collection",
		}, []string{"collection"}),

		documentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_deleted_total",
			Help:      "Documents and files deleted during reset, by target",
		}, []string{"target"}),

		assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_total",
			Help:      "Asset uploads by result",
		}, []string{"result"}),

		assetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Total asset bytes pushed to the blob store",
		}),

		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Pipeline phase duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"phase"}),

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final state",
		}, []string{"state"}),

		clientRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests",
		}, []string{"host", "method", "status"}),

		clientDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Outgoing HTTP request duration",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"host", "method"}),
	}

	reg.MustRegister(
		m.documentsCreated, m.documentsDeleted,
		m.assets, m.assetBytes,
		m.phaseDuration, m.runs,
		m.clientRequests, m.clientDuration,
	)

	return m
}

// DocumentCreated counts one created document.
func (m *Seed) DocumentCreated(collection string) {
	if m == nil {
		return
	}
	m.documentsCreated.WithLabelValues(collection).Inc()
}

// Deleted counts n deletions from target.
func (m *Seed) Deleted(target string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.documentsDeleted.WithLabelValues(target).Add(float64(n))
}

// Asset counts an asset outcome and, on success, its size.
func (m *Seed) Asset(result string, size int64) {
	if m == nil {
		return
	}
	m.assets.WithLabelValues(result).Inc()
	if result == AssetUploaded && size > 0 {
		m.assetBytes.Add(float64(size))
	}
}

// Phase observes a phase duration.
func (m *Seed) Phase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Run counts a finished run by its final state.
func (m *Seed) Run(state string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(state).Inc()
}
