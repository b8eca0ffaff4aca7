//go:build !integration

package envutil

import (
	"testing"
)

func TestGetIntFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{name: "unset uses default", value: "", expected: 4},
		{name: "valid value", value: "8", expected: 8},
		{name: "minimum", value: "1", expected: 1},
		{name: "maximum", value: "16", expected: 16},
		{name: "below minimum uses default", value: "0", expected: 4},
		{name: "above maximum uses default", value: "100", expected: 4},
		{name: "negative uses default", value: "-3", expected: 4},
		{name: "not a number uses default", value: "many", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("AL_BUILD_TEST_INT", tt.value)
			}
			got := GetIntFromEnv("AL_BUILD_TEST_INT", 4, 1, 16, nil)
			if got != tt.expected {
				t.Errorf("GetIntFromEnv(%q) = %d, want %d", tt.value, got, tt.expected)
			}
		})
	}
}
