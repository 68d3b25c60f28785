package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/downfa11-org/aesdchar/pkg/config"
	"github.com/downfa11-org/aesdchar/pkg/device"
	"github.com/downfa11-org/aesdchar/pkg/metrics"
	"github.com/downfa11-org/aesdchar/pkg/server"
	"github.com/downfa11-org/aesdchar/util"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		util.Fatal("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.EnableExporter {
		metrics.StartMetricsServer(ctx, cfg.ExporterPort)
	} else {
		util.Info("Exporter disabled")
	}

	dev := device.New(device.Options{
		Name:          "aesdchar",
		MaxWriteOps:   cfg.MaxWriteOps,
		Terminator:    cfg.TerminatorByte(),
		MaxRecordSize: cfg.MaxRecordSize,
	})
	defer dev.Close()

	util.Info("Starting aesdsocket on port %d (retaining %d writes)", cfg.Port, cfg.MaxWriteOps)
	if err := server.NewServer(cfg, dev).RunServer(ctx); err != nil {
		util.Error("aesdsocket failed: %v", err)
		dev.Close()
		os.Exit(1)
	}
	util.Info("Caught signal, exiting")
}
