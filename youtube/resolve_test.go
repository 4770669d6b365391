package youtube

import "testing"

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Rick Astley", "Rick Astley"},
		{"@mkbhd", "mkbhd"},
		{"https://www.youtube.com/@mkbhd", "mkbhd"},
		{"https://www.youtube.com/c/mkbhd", "mkbhd"},
		{"https://www.youtube.com/user/marquesbrownlee", "marquesbrownlee"},
		{"  spaced  ", "spaced"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := searchQuery(tt.input); got != tt.want {
			t.Errorf("searchQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
