package runner

import (
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Trigger: TriggerNone}},
		{"   ", Command{Trigger: TriggerNone}},
		{"start", Command{Trigger: TriggerStart}},
		{"APPROVE", Command{Trigger: TriggerDecide, Decision: domain.Approve()}},
		{"a", Command{Trigger: TriggerDecide, Decision: domain.Approve()}},
		{"reject", Command{Trigger: TriggerDecide, Decision: domain.Reject()}},
		{"skip", Command{Trigger: TriggerDecide, Decision: domain.Skip()}},
		{"revise", Command{Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentRevise)}},
		{"branch:alternative", Command{Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentAlternative)}},
		{"branch:skip", Command{Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentSkip)}},
		{"feedback", Command{Trigger: TriggerDecide, Decision: domain.Feedback("")}},
		{"f  use weekly data ", Command{Trigger: TriggerDecide, Decision: domain.Feedback("use weekly data")}},
		{"results", Command{Trigger: TriggerResults}},
		{"render", Command{Trigger: TriggerRender}},
		{"?", Command{Trigger: TriggerHelp}},
		{"exit", Command{Trigger: TriggerQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, line := range []string{"launch", "branch:sideways", "approveall"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrUnknownCommand, line)
	}
}
