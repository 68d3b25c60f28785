package config

import (
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/downfa11-org/aesdchar/pkg/accumulator"
	"github.com/downfa11-org/aesdchar/util"
	"gopkg.in/yaml.v3"
)

// Config holds the socket server and device settings.
type Config struct {
	// Server settings
	Port           int           `yaml:"port" json:"port"`
	EnableExporter bool          `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int           `yaml:"exporter_port" json:"exporter.port"`
	LogLevel       util.LogLevel `yaml:"log_level" json:"log_level"`
	ReuseAddr      bool          `yaml:"reuse_addr" json:"reuse.addr"`

	// Device
	MaxWriteOps   int    `yaml:"max_write_ops" json:"max.write.ops"`
	Terminator    string `yaml:"terminator" json:"terminator"`
	MaxRecordSize int    `yaml:"max_record_size" json:"max.record.size"`

	// Connection handling
	Workers       int           `yaml:"workers" json:"workers"`
	ReadChunkSize int           `yaml:"read_chunk_size" json:"read.chunk.size"`
	ConnTimeout   time.Duration `yaml:"conn_timeout" json:"conn.timeout"`

	// Security
	UseTLS      bool            `yaml:"use_tls" json:"tls.enable"`
	TLSCertPath string          `yaml:"tls_cert_path" json:"tls.cert_path"`
	TLSKeyPath  string          `yaml:"tls_key_path" json:"tls.key_path"`
	TLSCert     tls.Certificate `yaml:"-" json:"-"`
}

const (
	DefaultPort          = 9000
	DefaultExporterPort  = 9100
	DefaultMaxWriteOps   = 10
	DefaultTerminator    = string(rune(accumulator.DefaultTerminator))
	DefaultMaxRecordSize = accumulator.DefaultMaxPending
	DefaultWorkers       = 64
	DefaultReadChunkSize = 4096
	DefaultConnTimeout   = 5 * time.Minute
)

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{
		Port:          DefaultPort,
		ExporterPort:  DefaultExporterPort,
		LogLevel:      util.LogLevelInfo,
		ReuseAddr:     true,
		MaxWriteOps:   DefaultMaxWriteOps,
		Terminator:    DefaultTerminator,
		MaxRecordSize: DefaultMaxRecordSize,
		Workers:       DefaultWorkers,
		ReadChunkSize: DefaultReadChunkSize,
		ConnTimeout:   DefaultConnTimeout,
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML/JSON
// file and finally the flags explicitly set in args.
func LoadConfig(args []string) (*Config, error) {
	def := Default()
	fs := flag.NewFlagSet("aesdchar", flag.ContinueOnError)

	configPath := fs.String("config", "", "Path to YAML/JSON config file")
	port := fs.Int("port", def.Port, "Socket server port")
	exporter := fs.Bool("exporter", def.EnableExporter, "Enable Prometheus exporter")
	exporterPort := fs.Int("exporter-port", def.ExporterPort, "Exporter port")
	logLevel := fs.String("log-level", def.LogLevel.String(), "Log Level (debug, info, warn, error)")
	reuseAddr := fs.Bool("reuse-addr", def.ReuseAddr, "Set SO_REUSEADDR on the listener")

	maxWriteOps := fs.Int("max-write-ops", def.MaxWriteOps, "Number of write records retained by the device")
	terminator := fs.String("terminator", `\n`, "Record terminator byte (escapes like \\n and \\0 accepted)")
	maxRecordSize := fs.Int("max-record-size", def.MaxRecordSize, "Maximum bytes buffered for one record (0 = unlimited)")

	workers := fs.Int("workers", def.Workers, "Number of connection workers")
	readChunk := fs.Int("read-chunk", def.ReadChunkSize, "Bytes read from the device per response chunk")
	connTimeout := fs.Duration("conn-timeout", def.ConnTimeout, "Idle timeout for client connections")

	useTLS := fs.Bool("tls", false, "Enable TLS")
	tlsCert := fs.String("tls-cert", "", "TLS certificate path")
	tlsKey := fs.String("tls-key", "", "TLS key path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && *configPath == "" {
		*configPath = envPath
	}

	cfg := def
	if *configPath != "" {
		if err := loadFile(cfg, *configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "exporter":
			cfg.EnableExporter = *exporter
		case "exporter-port":
			cfg.ExporterPort = *exporterPort
		case "log-level":
			cfg.LogLevel = util.ParseLogLevel(*logLevel)
		case "reuse-addr":
			cfg.ReuseAddr = *reuseAddr
		case "max-write-ops":
			cfg.MaxWriteOps = *maxWriteOps
		case "terminator":
			cfg.Terminator = *terminator
		case "max-record-size":
			cfg.MaxRecordSize = *maxRecordSize
		case "workers":
			cfg.Workers = *workers
		case "read-chunk":
			cfg.ReadChunkSize = *readChunk
		case "conn-timeout":
			cfg.ConnTimeout = *connTimeout
		case "tls":
			cfg.UseTLS = *useTLS
		case "tls-cert":
			cfg.TLSCertPath = *tlsCert
		case "tls-key":
			cfg.TLSKeyPath = *tlsKey
		}
	})

	applyEnv(cfg)
	cfg.Normalize()
	util.SetLevel(cfg.LogLevel)

	if cfg.UseTLS {
		if cfg.TLSCertPath == "" || cfg.TLSKeyPath == "" {
			return nil, fmt.Errorf("TLS enabled but certificate or key path is empty")
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		cfg.TLSCert = cert
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
