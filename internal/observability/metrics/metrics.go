package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics exposes counters/histograms for the enquiry ingestion flow.
type IngestMetrics struct {
	processedTotal *prometheus.CounterVec
	conflictsTotal *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		processedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muso",
			Subsystem: "ingest",
			Name:      "enquiries_processed_total",
			Help:      "Total inbound enquiry emails processed",
		}, []string{"mode", "status"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muso",
			Subsystem: "ingest",
			Name:      "conflicts_detected_total",
			Help:      "Total booking conflicts detected at persist time",
		}, []string{"kind"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "muso",
			Subsystem: "ingest",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound email webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.processedTotal, m.conflictsTotal, m.webhookLatency)
	return m
}

// ObserveProcessed records one processed webhook. mode is one of
// "heuristic", "ai-assisted" or "duplicate-skipped".
func (m *IngestMetrics) ObserveProcessed(mode, status string) {
	if m == nil {
		return
	}
	m.processedTotal.WithLabelValues(mode, status).Inc()
}

func (m *IngestMetrics) ObserveConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

func (m *IngestMetrics) ObserveWebhookLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(mode).Observe(seconds)
}
