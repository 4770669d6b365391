package youtube

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		iso  string
		want string
	}{
		{"PT4M13S", "4:13"},
		{"PT1H2M3S", "1:02:03"},
		{"PT15S", "0:15"},
		{"PT2H", "2:00:00"},
		{"PT10M", "10:00"},
		{"PT0S", "0:00"},
		{"Unknown", "Unknown"},
		{"", ""},
		{"P1DT2H", "P1DT2H"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.iso); got != tt.want {
			t.Errorf("FormatDuration(%q) = %q, want %q", tt.iso, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1532, "1.5K"},
		{999999, "1000K"},
		{1000000, "1M"},
		{2400000, "2.4M"},
		{1500000000, "1.5B"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
