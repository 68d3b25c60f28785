package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesd_connections_total",
		Help: "Total number of accepted client connections",
	})

	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesd_active_connections",
		Help: "Number of client connections currently being served",
	})

	PacketsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aesd_packets_processed_total",
			Help: "Total number of packets handled by the socket server",
		},
		[]string{"kind"}, // write, seekto
	)

	PacketLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aesd_packet_latency_seconds",
		Help:    "Histogram of time spent handling one packet, response included",
		Buckets: prometheus.DefBuckets,
	})
)

// PushPacket updates packet metrics for one handled packet.
func PushPacket(kind string, elapsedSeconds float64) {
	PacketsProcessed.WithLabelValues(kind).Inc()
	PacketLatency.Observe(elapsedSeconds)
}
