package util

import "strconv"

// ParseInt parses an environment override such as AESD_PORT, keeping
// fallback when the value is not a number.
func ParseInt(str string, fallback int) int {
	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	return fallback
}

// ParseBool parses a flag-style override such as AESD_EXPORTER.
func ParseBool(str string, fallback bool) bool {
	if v, err := strconv.ParseBool(str); err == nil {
		return v
	}
	return fallback
}
