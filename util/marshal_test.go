package util_test

import (
	"encoding/json"
	"testing"

	"github.com/downfa11-org/aesdchar/util"
	"gopkg.in/yaml.v3"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  util.LogLevel
	}{
		{"debug", util.LogLevelDebug},
		{"INFO", util.LogLevelInfo},
		{" warning ", util.LogLevelWarn},
		{"error", util.LogLevelError},
		{"verbose", util.LogLevelInfo},
	}

	for _, tt := range tests {
		if got := util.ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogLevelUnmarshal(t *testing.T) {
	var y struct {
		Level util.LogLevel `yaml:"log_level"`
	}
	if err := yaml.Unmarshal([]byte("log_level: debug\n"), &y); err != nil {
		t.Fatalf("yaml unmarshal failed: %v", err)
	}
	if y.Level != util.LogLevelDebug {
		t.Fatalf("expected debug, got %v", y.Level)
	}
	if err := yaml.Unmarshal([]byte("log_level: 3\n"), &y); err != nil {
		t.Fatalf("yaml unmarshal of integer failed: %v", err)
	}
	if y.Level != util.LogLevelError {
		t.Fatalf("expected error, got %v", y.Level)
	}

	if err := yaml.Unmarshal([]byte("log_level: 0\n"), &y); err != nil {
		t.Fatalf("yaml unmarshal of integer failed: %v", err)
	}
	if y.Level != util.LogLevelDebug {
		t.Fatalf("integer 0 should decode as debug, got %v", y.Level)
	}
	if err := yaml.Unmarshal([]byte("log_level: \"2\"\n"), &y); err != nil {
		t.Fatalf("yaml unmarshal of quoted number failed: %v", err)
	}
	if y.Level != util.LogLevelInfo {
		t.Fatalf("quoted number is a level name and should fall back to info, got %v", y.Level)
	}
	if err := yaml.Unmarshal([]byte("log_level: [1]\n"), &y); err == nil {
		t.Fatalf("expected error for sequence log level")
	}

	var j struct {
		Level util.LogLevel `json:"log_level"`
	}
	if err := json.Unmarshal([]byte(`{"log_level":"warn"}`), &j); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if j.Level != util.LogLevelWarn {
		t.Fatalf("expected warn, got %v", j.Level)
	}
	if err := json.Unmarshal([]byte(`{"log_level":[1]}`), &j); err == nil {
		t.Fatalf("expected error for array log level")
	}
}
