package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Directive tells the engine which side effect follows a transition.
type Directive string

const (
	// DirectiveRevealStep streams the new current step to the view.
	DirectiveRevealStep Directive = "reveal_step"
	// DirectiveOpenDiscussion opens the rejection thread for the current step.
	DirectiveOpenDiscussion Directive = "open_discussion"
	// DirectiveRequestFeedback asks the operator for free-form feedback in the thread.
	DirectiveRequestFeedback Directive = "request_feedback"
	// DirectiveRecordFeedback acknowledges feedback that was stored on the session.
	DirectiveRecordFeedback Directive = "record_feedback"
	// DirectiveShowResults renders the terminal summary.
	DirectiveShowResults Directive = "show_results"
)

// Outcome is the result of a transition.
type Outcome struct {
	State *domain.SessionState
	// Step is the current step after the transition; nil when terminal.
	Step      *domain.Step
	Directive Directive
	Decision  domain.Decision
	// ThreadID is the discussion thread the decision resolved or replied to, if any.
	ThreadID string
}

// Terminal reports whether the outcome ended the workflow.
func (o *Outcome) Terminal() bool {
	return o.Directive == DirectiveShowResults
}

// Controller is the pure transition function over a catalog.
// It never performs I/O and never mutates its inputs.
type Controller struct {
	catalog *domain.Catalog
	now     func() time.Time
}

// NewController creates a controller for the given catalog.
func NewController(catalog *domain.Catalog) *Controller {
	return &Controller{
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the catalog the controller walks.
func (c *Controller) Catalog() *domain.Catalog {
	return c.catalog
}

// Start resets the session to step 0. Nothing from prior survives except the
// generation counter, which keeps increasing so that work scheduled for the old
// run is recognised as stale.
func (c *Controller) Start(sessionID string, prior *domain.SessionState) *Outcome {
	state := domain.NewSessionState(sessionID)
	state.StartedAt = c.now()
	state.UpdatedAt = state.StartedAt
	if prior != nil {
		state.Generation = prior.Generation + 1
	} else {
		state.Generation = 1
	}

	first, _ := c.catalog.Step(0)
	return &Outcome{
		State:     state,
		Step:      &first,
		Directive: DirectiveRevealStep,
	}
}

// Decide applies an operator decision to the current state.
// It fails with *domain.InvalidStateError when the session is idle, finished or
// the decision does not apply to the current phase.
func (c *Controller) Decide(current *domain.SessionState, d domain.Decision) (*Outcome, error) {
	phase := current.Phase(c.catalog.Len())
	sessionID := ""
	if current != nil {
		sessionID = current.SessionID
	}

	invalid := func(reason string) error {
		return &domain.InvalidStateError{
			SessionID: sessionID,
			Phase:     phase,
			Decision:  d.String(),
			Reason:    reason,
		}
	}

	switch phase {
	case domain.PhaseIdle:
		return nil, invalid("no workflow in progress")
	case domain.PhaseTerminal:
		return nil, invalid("workflow already finished")
	}
	if current.CurrentIndex < 0 {
		return nil, invalid("current index out of range")
	}

	switch d.Kind {
	case domain.DecisionApprove, domain.DecisionSkip:
		if phase == domain.PhasePaused {
			return nil, invalid("a rejected step is resolved with a branch decision")
		}
		return c.advance(current, d), nil

	case domain.DecisionBranch:
		if !d.Intent.IsValid() {
			return nil, fmt.Errorf("%w: unknown branch intent %q", domain.ErrInvalidDecision, d.Intent)
		}
		return c.advance(current, d), nil

	case domain.DecisionReject:
		if phase == domain.PhasePaused {
			return nil, invalid("step already rejected")
		}
		return c.reject(current, d), nil

	case domain.DecisionFeedback:
		if phase != domain.PhasePaused {
			return nil, invalid("feedback is only accepted for a rejected step")
		}
		return c.feedback(current, d), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDecision, d.Kind)
	}
}

// advance is the single forward transition shared by approval, skip and every
// branch resolution: record the current index as completed and move to the next.
func (c *Controller) advance(current *domain.SessionState, d domain.Decision) *Outcome {
	next := current.Clone()
	done := next.CurrentIndex

	next.CompletedIndices = append(next.CompletedIndices, done)
	next.CurrentIndex = done + 1
	next.Paused = false
	next.ThreadID = ""
	next.Generation++
	next.UpdatedAt = c.now()

	out := &Outcome{
		State:    next,
		Decision: d,
		ThreadID: current.ThreadID,
	}

	step, ok := c.catalog.Step(next.CurrentIndex)
	if !ok {
		// Results presenter: the summary is shown as part of the terminal transition.
		next.ResultsShown = true
		out.Directive = DirectiveShowResults
		return out
	}

	out.Step = &step
	out.Directive = DirectiveRevealStep
	return out
}

func (c *Controller) reject(current *domain.SessionState, d domain.Decision) *Outcome {
	next := current.Clone()
	next.Paused = true
	next.ThreadID = ""
	next.Generation++
	next.UpdatedAt = c.now()

	step, _ := c.catalog.Step(next.CurrentIndex)
	return &Outcome{
		State:     next,
		Step:      &step,
		Directive: DirectiveOpenDiscussion,
		Decision:  d,
	}
}

// feedback keeps the session paused on the same step. Without text it only asks
// for input; with text it records the (already sanitized) feedback.
func (c *Controller) feedback(current *domain.SessionState, d domain.Decision) *Outcome {
	next := current.Clone()
	next.Generation++
	next.UpdatedAt = c.now()

	step, _ := c.catalog.Step(next.CurrentIndex)
	out := &Outcome{
		State:     next,
		Step:      &step,
		Directive: DirectiveRequestFeedback,
		Decision:  d,
		ThreadID:  current.ThreadID,
	}

	if text := strings.TrimSpace(d.Text); text != "" {
		next.Feedback = append(next.Feedback, text)
		out.Directive = DirectiveRecordFeedback
	}
	return out
}
