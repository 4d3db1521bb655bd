package backend

import "testing"

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"http://localhost:3001/youtube", "http://localhost:3001/youtube"},
		{"https://media.example.com", "https://media.example.com"},
		{"192.168.1.1:3001", "http://192.168.1.1:3001"},
		{"media.example.com/youtube", "http://media.example.com/youtube"},
		{"http://192.168.1.1:3001/youtube/", "http://192.168.1.1:3001/youtube"},
		{"http://192.168.1.1:3001///", "http://192.168.1.1:3001"},
		{" localhost:3001/ ", "http://localhost:3001"},
	}
	for _, tt := range tests {
		got := NormalizeServerURL(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeServerURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
