package infra

import (
	"net/http/httptest"
	"testing"
)

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin(map[string]bool{"http://127.0.0.1:3000": true})
	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"allowed origin", "http://127.0.0.1:3000", true},
		{"same host", "http://lingo.example", true},
		{"same host other case", "http://LINGO.example", true},
		{"foreign origin", "http://evil.example", false},
		{"allowed host other port", "http://127.0.0.1:4000", false},
		{"malformed origin", "://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://lingo.example/api/v1/ws/quiz/1", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := check(r); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
