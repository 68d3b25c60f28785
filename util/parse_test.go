package util_test

import (
	"testing"

	"github.com/downfa11-org/aesdchar/util"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int
		want     int
	}{
		{"port override", "9300", 9000, 9300},
		{"zero write ops", "0", 10, 0},
		{"negative port", "-1", 9000, -1},
		{"port with suffix", "9000/tcp", 9000, 9000},
		{"unset", "", 10, 10},
		{"padded", " 20 ", 10, 10},
	}

	for _, tt := range tests {
		if got := util.ParseInt(tt.input, tt.fallback); got != tt.want {
			t.Errorf("%s: ParseInt(%q, %d) = %d; want %d", tt.name, tt.input, tt.fallback, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"FALSE", true, false},
		{"1", false, true},
		{"0", true, false},
		{"enabled", true, true},
		{"yes", false, false},
		{"", true, true},
	}

	for _, tt := range tests {
		if got := util.ParseBool(tt.input, tt.fallback); got != tt.want {
			t.Errorf("ParseBool(%q, %v) = %v; want %v", tt.input, tt.fallback, got, tt.want)
		}
	}
}
