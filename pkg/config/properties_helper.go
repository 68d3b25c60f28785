package config

import (
	"os"
	"strings"

	"github.com/downfa11-org/aesdchar/util"
)

// applyEnv lets the container environment override the port settings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("AESD_PORT"); v != "" {
		cfg.Port = util.ParseInt(v, cfg.Port)
	}
	if v := os.Getenv("AESD_EXPORTER"); v != "" {
		cfg.EnableExporter = util.ParseBool(v, cfg.EnableExporter)
	}
	if v := os.Getenv("AESD_MAX_WRITE_OPS"); v != "" {
		cfg.MaxWriteOps = util.ParseInt(v, cfg.MaxWriteOps)
	}
}

func (cfg *Config) Normalize() {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if cfg.ExporterPort <= 0 || cfg.ExporterPort > 65535 {
		cfg.ExporterPort = DefaultExporterPort
	}
	if cfg.EnableExporter && cfg.ExporterPort == cfg.Port {
		port := DefaultExporterPort
		if port == cfg.Port {
			port++
		}
		util.Warn("Exporter port %d collides with server port, using %d", cfg.ExporterPort, port)
		cfg.ExporterPort = port
	}

	// device
	if cfg.MaxWriteOps <= 0 {
		cfg.MaxWriteOps = DefaultMaxWriteOps
	}
	term, ok := unescapeTerminator(cfg.Terminator)
	if !ok {
		util.Warn("Invalid terminator %q, defaulting to newline", cfg.Terminator)
		term = DefaultTerminator
	}
	cfg.Terminator = term
	if cfg.MaxRecordSize < 0 {
		cfg.MaxRecordSize = 0
	}

	// connections
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ReadChunkSize <= 0 {
		cfg.ReadChunkSize = DefaultReadChunkSize
	}
	if cfg.ConnTimeout <= 0 {
		cfg.ConnTimeout = DefaultConnTimeout
	}
}

// TerminatorByte returns the normalized record terminator.
func (cfg *Config) TerminatorByte() byte {
	if len(cfg.Terminator) != 1 {
		return DefaultTerminator[0]
	}
	return cfg.Terminator[0]
}

func unescapeTerminator(s string) (string, bool) {
	switch s {
	case "":
		return DefaultTerminator, true
	case `\n`:
		return "\n", true
	case `\r`:
		return "\r", true
	case `\0`:
		return "\x00", true
	case `\t`:
		return "\t", true
	}
	if len(s) != 1 {
		return "", false
	}
	return s, strings.TrimSpace(s) != "" || s == "\n" || s == "\r" || s == "\t"
}
