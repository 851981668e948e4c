package worker

import (
	"testing"
)

func TestSanitizeTeam(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Current code", "KC", "KC"},
		{"Lower case", "buf", "BUF"},
		{"Whitespace", " SF ", "SF"},
		{"Jacksonville legacy", "JAC", "JAX"},
		{"St. Louis Rams", "STL", "LA"},
		{"Rams alternate", "LAR", "LA"},
		{"San Diego", "sd", "LAC"},
		{"Oakland", "OAK", "LV"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeTeam(tt.input)
			if got != tt.expected {
				t.Errorf("sanitizeTeam(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizePlayType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pass", "pass"},
		{"P", "pass"},
		{"Pass", "pass"},
		{" PASS ", "pass"},
		{"r", "run"},
		{"RUN", "run"},
		{"punt", "punt"},
		{" no_play", "no_play"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizePlayType(tt.input); got != tt.expected {
				t.Errorf("normalizePlayType(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func BenchmarkSanitizeTeam(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sanitizeTeam(" jac ")
	}
}
