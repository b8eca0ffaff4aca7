// Package actions integrates with the GitHub Actions runner: it captures the
// build context from the runner environment and writes step outputs.
package actions

import (
	"os"
	"time"

	"github.com/lincza/al-build/pkg/gitutil"
	"github.com/lincza/al-build/pkg/logger"
)

var contextLog = logger.New("actions:context")

// EventKind identifies the workflow event that triggered the build.
type EventKind string

const (
	EventPush             EventKind = "push"
	EventPullRequest      EventKind = "pull_request"
	EventWorkflowDispatch EventKind = "workflow_dispatch"
	EventManual           EventKind = "manual"
)

// BuildContext is an immutable snapshot of the invocation environment.
// It is constructed once per run and passed by value; nothing in the
// pipeline mutates it.
type BuildContext struct {
	Event  EventKind
	Ref    string
	Commit string
	Now    time.Time
}

// ShortCommit returns the 7-character commit prefix used in artifact names.
// A zero placeholder is returned when no commit is available (local runs).
func (c BuildContext) ShortCommit() string {
	if len(c.Commit) >= 7 {
		return c.Commit[:7]
	}
	if c.Commit != "" {
		return c.Commit
	}
	return "0000000"
}

// NewBuildContext captures the build context from the runner environment.
// Outside of GitHub Actions the event defaults to "manual" with an empty
// ref, which downstream classification treats as a validation build.
func NewBuildContext() BuildContext {
	event := os.Getenv("GITHUB_EVENT_NAME")
	if event == "" {
		event = string(EventManual)
	}
	commit := os.Getenv("GITHUB_SHA")
	if commit != "" && !gitutil.IsHexString(commit) {
		contextLog.Printf("Ignoring malformed GITHUB_SHA %q", commit)
		commit = ""
	}
	ctx := BuildContext{
		Event:  EventKind(event),
		Ref:    os.Getenv("GITHUB_REF_NAME"),
		Commit: commit,
		Now:    time.Now().UTC(),
	}
	contextLog.Printf("Captured build context: event=%s ref=%s commit=%s", ctx.Event, ctx.Ref, ctx.ShortCommit())
	return ctx
}

// IsCI reports whether the process is running under a CI environment.
func IsCI() bool {
	for _, v := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS"} {
		if os.Getenv(v) != "" {
			contextLog.Printf("CI environment detected via %s", v)
			return true
		}
	}
	return false
}
