package bitrate

import (
	"strconv"
	"strings"
)

// ParseKbps reads a bitrate label such as "128kbps" or "160 kbps" and returns
// the numeric kbps value. Missing or unparsable labels return 0.
func ParseKbps(label string) int {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// FormatKbps renders bits per second as a "<n>kbps" label. Non-positive
// inputs return an empty label.
func FormatKbps(bps int) string {
	if bps <= 0 {
		return ""
	}
	return strconv.Itoa(bps/1000) + "kbps"
}
