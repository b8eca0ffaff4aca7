// Package buildver decides what kind of build an invocation is and derives
// the deterministic build version number for it.
package buildver

import (
	"regexp"

	"github.com/lincza/al-build/pkg/actions"
	"github.com/lincza/al-build/pkg/logger"
)

var modeLog = logger.New("buildver:mode")

// Mode classifies an invocation. The mode decides the version shape and
// whether signing and publishing run at all.
type Mode string

const (
	// ModeValidation compiles only; no artifact is signed or published and
	// the version is pinned to 0.0.0.0.
	ModeValidation Mode = "Validation"
	// ModeDevelopment produces a dev artifact with the 99.x version prefix.
	ModeDevelopment Mode = "Development"
	// ModeProduction produces a releasable artifact versioned after the
	// platform major version.
	ModeProduction Mode = "Production"
)

// releaseRefRegexp matches version maintenance branches such as bc22.
var releaseRefRegexp = regexp.MustCompile(`^bc\d+$`)

// Classify maps the triggering event and ref to a build mode. The function
// is total: any combination it does not recognize is a validation build,
// which has no side effects beyond compilation.
func Classify(event actions.EventKind, ref string) Mode {
	var mode Mode
	switch {
	case event == actions.EventPush && (ref == "main" || ref == "master" || releaseRefRegexp.MatchString(ref)):
		mode = ModeProduction
	case event == actions.EventWorkflowDispatch && ref == "develop":
		mode = ModeDevelopment
	default:
		mode = ModeValidation
	}
	modeLog.Printf("Classified event=%s ref=%s as %s", event, ref, mode)
	return mode
}

// ShouldSign reports whether artifacts of this mode are signed.
func (m Mode) ShouldSign() bool {
	return m == ModeProduction
}

// ShouldPublish reports whether artifacts of this mode may be submitted to
// the store. Store eligibility is checked separately.
func (m Mode) ShouldPublish() bool {
	return m == ModeProduction
}
