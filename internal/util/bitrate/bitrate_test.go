package bitrate

import "testing"

func TestParseKbps(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  int
	}{
		{name: "typical", label: "128kbps", want: 128},
		{name: "high", label: "256kbps", want: 256},
		{name: "with space", label: "160 kbps", want: 160},
		{name: "upper case unit", label: "192KBPS", want: 192},
		{name: "no unit", label: "96", want: 96},
		{name: "empty", label: "", want: 0},
		{name: "garbage", label: "fast", want: 0},
		{name: "decimal", label: "129.5kbps", want: 0},
		{name: "other unit", label: "128mbps", want: 0},
		{name: "negative", label: "-5kbps", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKbps(tt.label)
			if got != tt.want {
				t.Errorf("ParseKbps(%q) = %d, want %d", tt.label, got, tt.want)
			}
		})
	}
}

func TestFormatKbps(t *testing.T) {
	tests := []struct {
		name string
		bps  int
		want string
	}{
		{name: "round", bps: 128000, want: "128kbps"},
		{name: "truncates", bps: 129871, want: "129kbps"},
		{name: "zero", bps: 0, want: ""},
		{name: "negative", bps: -1, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatKbps(tt.bps)
			if got != tt.want {
				t.Errorf("FormatKbps(%d) = %q, want %q", tt.bps, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	if got := ParseKbps(FormatKbps(192000)); got != 192 {
		t.Errorf("round trip = %d, want 192", got)
	}
}
