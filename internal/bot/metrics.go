package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	DocumentsSent        prometheus.Counter
	RemindersSent        prometheus.Counter
	InvoicesCreated      prometheus.Counter
	PinsIssued           prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Total number of processed messages",
		}),

		CommandsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler errors",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		DocumentsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_documents_sent_total",
			Help: "Total number of documents delivered",
		}),

		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reminders_sent_total",
			Help: "Total number of arrival reminders sent",
		}),

		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mietbot_invoices_created_total",
			Help: "Total number of invoices created",
		}),

		PinsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mietbot_pins_issued_total",
			Help: "Total number of door codes issued",
		}),
	}
}
