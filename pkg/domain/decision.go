package domain

import (
	"fmt"
	"strings"
)

// DecisionKind is the operator choice delivered by the surface.
type DecisionKind string

const (
	DecisionApprove  DecisionKind = "approve"
	DecisionReject   DecisionKind = "reject"
	DecisionSkip     DecisionKind = "skip"
	DecisionBranch   DecisionKind = "branch"
	DecisionFeedback DecisionKind = "feedback"
)

// BranchIntent is one of the resolutions offered after a rejection.
type BranchIntent string

const (
	IntentRevise      BranchIntent = "revise"
	IntentAlternative BranchIntent = "alternative"
	IntentSkip        BranchIntent = "skip"
)

// Intents lists the advancing branch resolutions in menu order.
func Intents() []BranchIntent {
	return []BranchIntent{IntentRevise, IntentAlternative, IntentSkip}
}

// IsValid reports whether i is a known advancing intent.
func (i BranchIntent) IsValid() bool {
	switch i {
	case IntentRevise, IntentAlternative, IntentSkip:
		return true
	default:
		return false
	}
}

// Decision is an operator input to the Advancement Controller.
type Decision struct {
	Kind DecisionKind `json:"kind"`
	// Intent is set for DecisionBranch.
	Intent BranchIntent `json:"intent,omitempty"`
	// Text carries free-form feedback for DecisionFeedback. Empty means
	// "ask the operator for feedback".
	Text string `json:"text,omitempty"`
	// Automatic marks the implicit approval fired by the auto-advance timer.
	Automatic bool `json:"automatic,omitempty"`
}

func Approve() Decision { return Decision{Kind: DecisionApprove} }
func Reject() Decision  { return Decision{Kind: DecisionReject} }
func Skip() Decision    { return Decision{Kind: DecisionSkip} }

// Branch resolves a rejection with the given intent.
func Branch(intent BranchIntent) Decision {
	return Decision{Kind: DecisionBranch, Intent: intent}
}

// Feedback requests (empty text) or records custom operator feedback.
func Feedback(text string) Decision {
	return Decision{Kind: DecisionFeedback, Text: text}
}

// Advances reports whether the decision moves the workflow forward.
// Approve, Skip and every Branch intent share the same transition.
func (d Decision) Advances() bool {
	switch d.Kind {
	case DecisionApprove, DecisionSkip, DecisionBranch:
		return true
	default:
		return false
	}
}

// String renders the decision in its wire form (e.g. "branch:revise").
func (d Decision) String() string {
	if d.Kind == DecisionBranch {
		return fmt.Sprintf("%s:%s", d.Kind, d.Intent)
	}
	return string(d.Kind)
}

// ParseDecision maps a surface decision kind (and optional payload) to a Decision.
// Accepted kinds: approve, reject, skip, branch:revise, branch:alternative,
// branch:skip, feedback.
func ParseDecision(kind, payload string) (Decision, error) {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch k {
	case string(DecisionApprove):
		return Approve(), nil
	case string(DecisionReject):
		return Reject(), nil
	case string(DecisionSkip):
		return Skip(), nil
	case string(DecisionFeedback):
		return Feedback(payload), nil
	}

	if rest, ok := strings.CutPrefix(k, string(DecisionBranch)+":"); ok {
		intent := BranchIntent(rest)
		if intent.IsValid() {
			return Branch(intent), nil
		}
	}
	return Decision{}, fmt.Errorf("%w: %q", ErrInvalidDecision, kind)
}
