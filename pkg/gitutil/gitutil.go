// Package gitutil provides small helpers for git and GitHub identifiers.
package gitutil

import (
	"strings"

	"github.com/lincza/al-build/pkg/logger"
)

var log = logger.New("gitutil:gitutil")

// IsAuthError checks if an error message indicates an authentication issue.
// Used to give a pointed hint when GitHub Packages registry calls fail due
// to missing or invalid credentials.
func IsAuthError(errMsg string) bool {
	lowerMsg := strings.ToLower(errMsg)
	isAuth := strings.Contains(lowerMsg, "gh_token") ||
		strings.Contains(lowerMsg, "github_token") ||
		strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "not logged into") ||
		strings.Contains(lowerMsg, "unauthorized") ||
		strings.Contains(lowerMsg, "forbidden") ||
		strings.Contains(lowerMsg, "permission denied")
	if isAuth {
		log.Printf("Detected authentication error: %s", errMsg)
	}
	return isAuth
}

// IsHexString checks if a string contains only hexadecimal characters.
// Used to validate commit SHAs before embedding them in build numbers.
func IsHexString(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
