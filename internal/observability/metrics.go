package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for LottoLedger.
type Metrics struct {
	// --- Submissions ---
	SubmissionsAccepted *prometheus.CounterVec
	SubmissionsRejected *prometheus.CounterVec
	BetsRecorded        prometheus.Counter
	ParseDuration       prometheus.Histogram

	// --- Inbox ---
	InboxMessages   *prometheus.CounterVec
	InboxDuplicates prometheus.Counter
	RepliesSent     prometheus.Counter
	ReplyErrors     prometheus.Counter

	// --- Snapshot persistence ---
	SnapshotSavesRequested prometheus.Counter
	SnapshotSavesWritten   prometheus.Counter
	SnapshotSaveErrors     prometheus.Counter
	SnapshotSaveDuration   prometheus.Histogram

	// --- Save channel backpressure ---
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec

	// --- HTTP API ---
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	parseBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Submissions
		SubmissionsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lotto_submissions_accepted_total",
			Help: "Submissions recorded in the ledger",
		}, []string{"channel"}),

		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lotto_submissions_rejected_total",
			Help: "Submissions rejected (unparsable, duplicate)",
		}, []string{"channel"}),

		BetsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_bets_recorded_total",
			Help: "Individual bets appended to the ledger",
		}),

		ParseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lotto_parse_duration_seconds",
			Help:    "Time to expand one shorthand submission",
			Buckets: parseBuckets,
		}),

		// Inbox
		InboxMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lotto_inbox_messages_total",
			Help: "Inbox messages received",
		}, []string{"outcome"}),

		InboxDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_inbox_duplicates_total",
			Help: "Inbox messages absorbed as duplicates",
		}),

		RepliesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_replies_sent_total",
			Help: "Confirmation replies published",
		}),

		ReplyErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_reply_errors_total",
			Help: "Failed reply publishes",
		}),

		// Snapshot persistence
		SnapshotSavesRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_snapshot_saves_requested_total",
			Help: "Snapshot save requests emitted by the engine",
		}),

		SnapshotSavesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_snapshot_saves_written_total",
			Help: "Snapshots written to Postgres",
		}),

		SnapshotSaveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lotto_snapshot_save_errors_total",
			Help: "Snapshot write failures",
		}),

		SnapshotSaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lotto_snapshot_save_duration_seconds",
			Help:    "Postgres snapshot write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		// Save channel backpressure
		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotto_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotto_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lotto_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		// HTTP API
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lotto_http_requests_total",
			Help: "HTTP requests",
		}, []string{"route", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lotto_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"route"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
