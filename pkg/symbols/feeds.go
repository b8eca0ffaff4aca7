// Package symbols resolves the symbol packages the AL compiler needs:
// Microsoft platform symbols, marketplace symbols for third-party
// dependencies, and a GitHub Packages registry fallback for in-house
// dependencies.
package symbols

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lincza/al-build/pkg/nuget"
)

// Public Business Central symbol feeds. Both are anonymous.
var (
	microsoftFeed = nuget.Feed{
		Name:     "MSSymbols",
		IndexURL: "https://dynamicssmb2.pkgs.visualstudio.com/DynamicsBCPublicFeeds/_packaging/MSSymbols/nuget/v3/index.json",
	}
	appSourceFeed = nuget.Feed{
		Name:     "AppSourceSymbols",
		IndexURL: "https://dynamicssmb2.pkgs.visualstudio.com/DynamicsBCPublicFeeds/_packaging/AppSourceSymbols/nuget/v3/index.json",
	}
)

// platformPackages returns the Microsoft symbol package search terms for a
// platform major version. Business Foundation ships separately from BC 24.
func platformPackages(platformMajor int) []string {
	packages := []string{
		"application.symbols",
		"baseapplication.symbols",
		"systemapplication.symbols",
		"platform.symbols",
	}
	if platformMajor >= 24 {
		packages = append(packages, "businessfoundation.symbols")
	}
	return packages
}

var wordRegexp = regexp.MustCompile(`\w+`)

// normalizeNameComponent collapses a publisher or app name into the
// title-cased alphanumeric form marketplace packages are named with,
// e.g. "Linc Communications (Pty) Ltd" -> "LincCommunicationsPtyLtd".
func normalizeNameComponent(text string) string {
	var sb strings.Builder
	for _, word := range wordRegexp.FindAllString(text, -1) {
		sb.WriteString(strings.ToUpper(word[:1]))
		sb.WriteString(strings.ToLower(word[1:]))
	}
	return sb.String()
}

// dependencySearchPatterns returns the package name candidates for a
// dependency, most specific first. Marketplace publishers are not fully
// consistent about the .symbols suffix or the appended app GUID, so
// several shapes are tried.
func dependencySearchPatterns(dep DependencyRef) []string {
	publisher := normalizeNameComponent(dep.Publisher)
	name := normalizeNameComponent(dep.Name)

	var patterns []string
	if dep.ID != "" {
		patterns = append(patterns, fmt.Sprintf("%s.%s.symbols.%s", publisher, name, dep.ID))
	}
	patterns = append(patterns,
		fmt.Sprintf("%s.%s.symbols", publisher, name),
		fmt.Sprintf("%s.%s", publisher, name),
	)

	// Deduplicate while preserving order.
	seen := make(map[string]bool, len(patterns))
	unique := patterns[:0]
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}
