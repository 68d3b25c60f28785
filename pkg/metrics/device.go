package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecordsAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesd_records_appended_total",
		Help: "Total number of completed write records appended to the log",
	})

	RecordsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesd_records_evicted_total",
		Help: "Total number of records evicted to make room for newer writes",
	})

	RetainedRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesd_retained_records",
		Help: "Number of records currently retained in the log",
	})

	RetainedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesd_retained_bytes",
		Help: "Combined size of all retained records",
	})

	PendingBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesd_pending_bytes",
		Help: "Bytes buffered while waiting for a record terminator",
	})

	RecordSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aesd_record_size_bytes",
		Help:    "Histogram of appended record sizes",
		Buckets: prometheus.ExponentialBuckets(8, 4, 8),
	})

	BytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesd_bytes_read_total",
		Help: "Total number of bytes returned to readers",
	})

	SeekErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aesd_seek_errors_total",
			Help: "Total number of rejected seek requests",
		},
		[]string{"op"}, // seek, seekto
	)

	DroppedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesd_dropped_records_total",
		Help: "Total number of partial records dropped for exceeding the pending limit",
	})
)

// ObserveLog records the state of the log after a mutation.
func ObserveLog(retained, totalSize, pending int) {
	RetainedRecords.Set(float64(retained))
	RetainedBytes.Set(float64(totalSize))
	PendingBytes.Set(float64(pending))
}

// ObserveAppend records one appended record and whether it evicted another.
func ObserveAppend(size int, evicted bool) {
	RecordsAppended.Inc()
	RecordSize.Observe(float64(size))
	if evicted {
		RecordsEvicted.Inc()
	}
}
