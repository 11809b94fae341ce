package internal

import "github.com/prometheus/client_golang/prometheus"

var (
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redsys",
			Name:      "notifications_total",
			Help:      "Gateway notifications by result",
		},
		[]string{"result"},
	)

	notificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "redsys",
			Name:      "notification_duration_seconds",
			Help:      "Time spent processing a gateway notification",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"},
	)

	signaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redsys",
			Name:      "signatures_total",
			Help:      "Signatures created (outbound) and verified (inbound)",
		},
		[]string{"direction", "status"},
	)

	storeRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "redsys",
			Name:      "store_retries_total",
			Help:      "Retried reservation store calls",
		},
	)
)

func init() {
	prometheus.MustRegister(notificationsTotal, notificationDuration, signaturesTotal, storeRetriesTotal)
}

func observeNotification(result string, seconds float64) {
	notificationsTotal.WithLabelValues(result).Inc()
	notificationDuration.WithLabelValues(result).Observe(seconds)
}

func countSignature(direction, status string) {
	signaturesTotal.WithLabelValues(direction, status).Inc()
}
