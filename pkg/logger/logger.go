// Package logger provides namespaced debug logging controlled by the DEBUG
// environment variable, in the style of the node debug package.
//
// Loggers are created with a namespace such as "cli:compile" and stay silent
// unless the namespace matches one of the comma-separated patterns in DEBUG:
//
//	DEBUG=*                enable everything
//	DEBUG=cli:*            enable the cli namespace
//	DEBUG=cli:*,symbols:*  enable multiple namespaces
//	DEBUG=*,-nuget:client  enable everything except nuget:client
//
// Output goes to stderr and is meant for diagnostics only; user-facing
// messages belong to pkg/console.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes debug messages for a single namespace.
type Logger struct {
	namespace string
	enabled   bool
	last      time.Time
	mu        sync.Mutex
}

var (
	patternsOnce sync.Once
	includes     []string
	excludes     []string
)

func loadPatterns() {
	for _, raw := range strings.Split(os.Getenv("DEBUG"), ",") {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "-") {
			excludes = append(excludes, p[1:])
		} else {
			includes = append(includes, p)
		}
	}
}

func matches(pattern, namespace string) bool {
	if pattern == "*" {
		return true
	}
	if suffix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(namespace, suffix)
	}
	return pattern == namespace
}

// New creates a logger for the given namespace. The enabled state is
// resolved once from DEBUG at creation time.
func New(namespace string) *Logger {
	patternsOnce.Do(loadPatterns)

	enabled := false
	for _, p := range includes {
		if matches(p, namespace) {
			enabled = true
			break
		}
	}
	for _, p := range excludes {
		if matches(p, namespace) {
			enabled = false
			break
		}
	}

	return &Logger{namespace: namespace, enabled: enabled}
}

// Enabled reports whether the logger emits output.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Printf formats and writes a debug message using fmt.Printf semantics.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Print concatenates its arguments like fmt.Sprint and writes them.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprint(args...))
}

func (l *Logger) write(msg string) {
	l.mu.Lock()
	now := time.Now()
	var delta time.Duration
	if !l.last.IsZero() {
		delta = now.Sub(l.last)
	}
	l.last = now
	l.mu.Unlock()

	fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, msg, delta)
}
