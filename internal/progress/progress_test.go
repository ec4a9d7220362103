package progress

import "testing"

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		done, total int64
		want        float64
	}{
		{name: "half", done: 50, total: 100, want: 50},
		{name: "complete", done: 100, total: 100, want: 100},
		{name: "overshoot clamps", done: 150, total: 100, want: 100},
		{name: "unknown total", done: 10, total: 0, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.done, tt.total); got != tt.want {
				t.Errorf("Percent(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
			}
		})
	}
}
