//go:build !integration

package logger

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern   string
		namespace string
		expected  bool
	}{
		{"*", "cli:compile", true},
		{"cli:*", "cli:compile", true},
		{"cli:*", "cli:root", true},
		{"cli:*", "symbols:resolver", false},
		{"cli:compile", "cli:compile", true},
		{"cli:compile", "cli:compiler", false},
		{"symbols:*", "symbols:registry", true},
		{"", "cli:compile", false},
	}
	for _, tt := range tests {
		if got := matches(tt.pattern, tt.namespace); got != tt.expected {
			t.Errorf("matches(%q, %q) = %v, want %v", tt.pattern, tt.namespace, got, tt.expected)
		}
	}
}

func TestDisabledLoggerIsSilent(t *testing.T) {
	l := &Logger{namespace: "test:silent"}
	if l.Enabled() {
		t.Fatal("logger with no matching pattern must be disabled")
	}
	// Must not panic or write.
	l.Printf("ignored %d", 1)
	l.Print("ignored")
}
