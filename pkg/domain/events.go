package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventStepEnter    EventType = "step_enter"
	EventDecision     EventType = "decision"
	EventTerminal     EventType = "terminal"
	EventRenderError  EventType = "render_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent is emitted when a step becomes current.
type StepEvent struct {
	EventBase
	Step Step `json:"step"`
}

// DecisionEvent is emitted after a decision has been applied.
type DecisionEvent struct {
	EventBase
	Decision Decision      `json:"decision"`
	Before   *SessionState `json:"before"`
	After    *SessionState `json:"after"`
}

// SessionEvent is emitted on session start and on reaching the terminal state.
type SessionEvent struct {
	EventBase
	State    *SessionState `json:"state"`
	Duration time.Duration `json:"duration,omitempty"`
}

// RenderErrorEvent is emitted when the surface rejects a render or message.
type RenderErrorEvent struct {
	EventBase
	Op  string `json:"op"`
	Err error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *SessionEvent)
	OnStepEnter    func(context.Context, *StepEvent)
	OnDecision     func(context.Context, *DecisionEvent)
	OnTerminal     func(context.Context, *SessionEvent)
	OnRenderError  func(context.Context, *RenderErrorEvent)
}

// NewEventBase stamps an event with the current time.
func NewEventBase(t EventType, sessionID string) EventBase {
	return EventBase{Timestamp: time.Now().UTC(), Type: t, SessionID: sessionID}
}
