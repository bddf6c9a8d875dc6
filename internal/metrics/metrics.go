package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mietbot",
			Name:      "webhook_requests_total",
			Help:      "Webhook requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(webhookRequests)
	})
}

// IncWebhook increments the counter for an endpoint label.
func IncWebhook(endpoint string) {
	webhookRequests.WithLabelValues(endpoint).Inc()
}
