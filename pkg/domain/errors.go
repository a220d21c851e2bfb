package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a decision arrives for an inactive,
	// finished or unknown session. It signals a contract violation by the caller.
	ErrInvalidState = errors.New("invalid session state")

	// ErrRenderDelivery is returned when the surface fails to render a view or post a message.
	ErrRenderDelivery = errors.New("render delivery failed")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCatalog is returned when a catalog violates its structural invariants.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrInvalidDecision is returned for decision kinds the engine does not understand.
	ErrInvalidDecision = errors.New("invalid decision")
)

// InvalidStateError describes why a decision could not be applied.
type InvalidStateError struct {
	SessionID string
	Phase     Phase
	Decision  string
	Reason    string
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("invalid session state: session=%q phase=%s", e.SessionID, e.Phase)
	if e.Decision != "" {
		msg += " decision=" + e.Decision
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is lets errors.Is match ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// RenderDeliveryError wraps a failure of the surface collaborator.
type RenderDeliveryError struct {
	SessionID string
	Op        string // "render_view" or "post_message"
	Err       error
}

func (e *RenderDeliveryError) Error() string {
	return fmt.Sprintf("render delivery failed: session=%q op=%s: %v", e.SessionID, e.Op, e.Err)
}

func (e *RenderDeliveryError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrRenderDelivery.
func (e *RenderDeliveryError) Is(target error) bool {
	return target == ErrRenderDelivery
}
