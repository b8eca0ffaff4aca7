// Package envutil provides utilities for reading and validating environment variables.
package envutil

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
)

// GetIntFromEnv reads an integer from an environment variable, validates
// it against min/max bounds, and falls back to a default when unset or
// invalid. Invalid values trigger warning messages to stderr.
func GetIntFromEnv(envVar string, defaultValue, minValue, maxValue int, log *logger.Logger) int {
	envValue := os.Getenv(envVar)
	if envValue == "" {
		return defaultValue
	}

	val, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(
			fmt.Sprintf("Invalid %s value '%s' (must be a number), using default %d", envVar, envValue, defaultValue),
		))
		return defaultValue
	}

	if val < minValue || val > maxValue {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(
			fmt.Sprintf("%s value %d is out of bounds (must be %d-%d), using default %d", envVar, val, minValue, maxValue, defaultValue),
		))
		return defaultValue
	}

	if log != nil {
		log.Printf("Using %s=%d", envVar, val)
	}
	return val
}
