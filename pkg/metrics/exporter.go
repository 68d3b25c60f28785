package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/downfa11-org/aesdchar/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(RecordsAppended, RecordsEvicted, RetainedRecords, RetainedBytes, PendingBytes, RecordSize)
	prometheus.MustRegister(BytesRead, SeekErrors, DroppedRecords)
	prometheus.MustRegister(ConnectionsTotal, ActiveConnections, PacketsProcessed, PacketLatency)
}

// StartMetricsServer serves /metrics on port until ctx is cancelled.
func StartMetricsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		util.Info("Prometheus exporter listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Error("Failed to start metrics server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
