//go:build !integration

package buildver

import (
	"testing"

	"github.com/lincza/al-build/pkg/actions"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		event    actions.EventKind
		ref      string
		expected Mode
	}{
		{"push to main", actions.EventPush, "main", ModeProduction},
		{"push to master", actions.EventPush, "master", ModeProduction},
		{"push to bc22", actions.EventPush, "bc22", ModeProduction},
		{"push to bc17", actions.EventPush, "bc17", ModeProduction},
		{"push to feature branch", actions.EventPush, "feature/symbols", ModeValidation},
		{"push to develop", actions.EventPush, "develop", ModeValidation},
		{"push to bc branch with suffix", actions.EventPush, "bc22-hotfix", ModeValidation},
		{"dispatch from develop", actions.EventWorkflowDispatch, "develop", ModeDevelopment},
		{"dispatch from main", actions.EventWorkflowDispatch, "main", ModeValidation},
		{"pull request to main", actions.EventPullRequest, "main", ModeValidation},
		{"manual run", actions.EventManual, "", ModeValidation},
		{"unknown event", actions.EventKind("schedule"), "main", ModeValidation},
		{"empty everything", actions.EventKind(""), "", ModeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if mode := Classify(tt.event, tt.ref); mode != tt.expected {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.event, tt.ref, mode, tt.expected)
			}
		})
	}
}

func TestModeSideEffects(t *testing.T) {
	if !ModeProduction.ShouldSign() || !ModeProduction.ShouldPublish() {
		t.Error("production builds must sign and publish")
	}
	for _, mode := range []Mode{ModeValidation, ModeDevelopment} {
		if mode.ShouldSign() {
			t.Errorf("%s builds must not sign", mode)
		}
		if mode.ShouldPublish() {
			t.Errorf("%s builds must not publish", mode)
		}
	}
}
