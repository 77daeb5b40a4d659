package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionState is 1 for the current readiness state of the shared MongoDB connection, 0 otherwise
	ConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamingapp_mongodb_connection_state",
			Help: "Readiness state of the shared MongoDB connection",
		},
		[]string{"state"},
	)

	HandshakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingapp_mongodb_handshakes_total",
			Help: "Total number of MongoDB handshakes attempted",
		},
		[]string{"result"},
	)

	HandshakeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamingapp_mongodb_handshake_duration_seconds",
			Help:    "Time taken to connect and ping MongoDB",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handshake result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// SetConnectionState marks current as the active state among all known states.
func SetConnectionState(current string, all []string) {
	for _, s := range all {
		if s == current {
			ConnectionState.WithLabelValues(s).Set(1)
		} else {
			ConnectionState.WithLabelValues(s).Set(0)
		}
	}
}
