package domain

import "time"

// Phase is the derived position of a session in the workflow state machine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStep     Phase = "step"
	PhasePaused   Phase = "paused" // rejected, waiting for a branch resolution
	PhaseTerminal Phase = "terminal"
)

// IsTerminal reports whether no further decisions are accepted.
func (p Phase) IsTerminal() bool {
	return p == PhaseTerminal
}

// SessionState is the mutable record of one in-flight run.
// Invariant: len(CompletedIndices) == CurrentIndex.
type SessionState struct {
	SessionID string `json:"session_id"`

	Active       bool `json:"active"`
	CurrentIndex int  `json:"current_index"`
	// CompletedIndices is append-only and strictly increasing.
	CompletedIndices []int `json:"completed_indices"`
	ResultsShown     bool  `json:"results_shown"`

	// Paused is set while the current step is rejected and under discussion.
	Paused bool `json:"paused,omitempty"`

	// Generation is bumped on every transition. Deferred work stamped with an
	// older generation must be discarded.
	Generation uint64 `json:"generation"`

	// ChannelID is where discussion threads are opened. Defaults to the session id.
	ChannelID string `json:"channel_id,omitempty"`
	// ThreadID anchors the discussion opened by the latest rejection.
	ThreadID string `json:"thread_id,omitempty"`
	// Feedback collects free-form operator input given while paused.
	Feedback []string `json:"feedback,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates a fresh run positioned at step 0.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		SessionID:        sessionID,
		Active:           true,
		CurrentIndex:     0,
		CompletedIndices: []int{},
		ChannelID:        sessionID,
		StartedAt:        now,
		UpdatedAt:        now,
	}
}

// Phase derives the state machine position given the catalog length n.
func (s *SessionState) Phase(n int) Phase {
	switch {
	case s == nil || !s.Active:
		return PhaseIdle
	case s.CurrentIndex >= n:
		return PhaseTerminal
	case s.Paused:
		return PhasePaused
	default:
		return PhaseStep
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	next := *s
	next.CompletedIndices = append([]int{}, s.CompletedIndices...)
	if s.Feedback != nil {
		next.Feedback = append([]string{}, s.Feedback...)
	}
	return &next
}

// Channel returns the discussion channel, falling back to the session id.
func (s *SessionState) Channel() string {
	if s.ChannelID != "" {
		return s.ChannelID
	}
	return s.SessionID
}
