package util

import "strconv"

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloatDefault parses string to float64 or returns default if empty/invalid.
func ParseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// ParseBoolFlag maps "0"/"1"/"true"/"false" onto 0 or 1, defaulting on anything else.
func ParseBoolFlag(s string, def int) int {
	switch s {
	case "0", "false", "FALSE", "False":
		return 0
	case "1", "true", "TRUE", "True":
		return 1
	default:
		return def
	}
}
