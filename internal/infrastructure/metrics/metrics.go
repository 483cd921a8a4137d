package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	// Resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	CandidatesOffered  prometheus.Histogram

	// Delivery metrics
	DeliveriesTotal  *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
	DeliveredBytes   prometheus.Counter
	ActiveDownloads  prometheus.Gauge
	SessionsExpired  prometheus.Counter
	RateLimitedLinks prometheus.Counter

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance registered with the default registry
func NewMetrics() *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytmagic_resolutions_total",
				Help: "Total number of link resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytmagic_resolution_duration_seconds",
			Help:    "Duration of link resolutions in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		CandidatesOffered: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytmagic_candidates_offered",
			Help:    "Number of quality buttons offered per resolved link",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
		}),

		DeliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytmagic_deliveries_total",
				Help: "Total number of delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytmagic_delivery_duration_seconds",
			Help:    "Duration of successful deliveries in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		DeliveredBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ytmagic_delivered_bytes_total",
			Help: "Total number of bytes uploaded to chats",
		}),
		ActiveDownloads: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ytmagic_active_downloads",
			Help: "Current number of deliveries holding a download slot",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ytmagic_sessions_expired_total",
			Help: "Total number of selections that referred to a missing session",
		}),
		RateLimitedLinks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ytmagic_rate_limited_links_total",
			Help: "Total number of links rejected by the per-chat rate limit",
		}),

		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ytmagic_kafka_messages_produced_total",
			Help: "Total number of delivery events produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytmagic_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
	}
}

// RecordResolution records a finished resolution; outcome is "ok" or an error kind label
func (m *Metrics) RecordResolution(outcome string, candidates int, duration float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(duration)
	if outcome == "ok" {
		m.CandidatesOffered.Observe(float64(candidates))
	}
}

// RecordDelivery records a successful delivery
func (m *Metrics) RecordDelivery(bytes int64, duration float64) {
	m.DeliveriesTotal.WithLabelValues("delivered").Inc()
	m.DeliveryDuration.Observe(duration)
	// Only add positive values to prevent counter from going backwards
	if bytes > 0 {
		m.DeliveredBytes.Add(float64(bytes))
	}
}

// RecordDeliveryError records a failed delivery with its reason
func (m *Metrics) RecordDeliveryError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.DeliveriesTotal.WithLabelValues(reason).Inc()
}

// DownloadStarted marks a download slot as taken
func (m *Metrics) DownloadStarted() {
	m.ActiveDownloads.Inc()
}

// DownloadFinished marks a download slot as released
func (m *Metrics) DownloadFinished() {
	m.ActiveDownloads.Dec()
}

// RecordSessionExpired records a selection for a missing session
func (m *Metrics) RecordSessionExpired() {
	m.SessionsExpired.Inc()
}

// RecordRateLimited records a rejected link
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedLinks.Inc()
}

// RecordKafkaMessage records a produced delivery event
func (m *Metrics) RecordKafkaMessage() {
	m.KafkaMessagesProduced.Inc()
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}
