package domain

// StateDiff represents the changes between two session states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Active       *bool `json:"active,omitempty"`
	CurrentIndex *int  `json:"current_index,omitempty"`
	Paused       *bool `json:"paused,omitempty"`
	ResultsShown *bool `json:"results_shown,omitempty"`

	// Completed contains *new* indices appended to CompletedIndices.
	Completed *CompletedDelta `json:"completed,omitempty"`

	// Reset is true when the new state is a fresh run (history was rewritten).
	Reset bool `json:"reset,omitempty"`
}

// CompletedDelta represents indices appended since the previous state.
type CompletedDelta struct {
	Appended []int `json:"appended"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing observable changed.
func Diff(oldState, newState *SessionState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.Active != newState.Active {
		diff.Active = &newState.Active
	}
	if oldState == nil || oldState.CurrentIndex != newState.CurrentIndex {
		diff.CurrentIndex = &newState.CurrentIndex
	}
	if oldState == nil || oldState.Paused != newState.Paused {
		diff.Paused = &newState.Paused
	}
	if oldState == nil || oldState.ResultsShown != newState.ResultsShown {
		diff.ResultsShown = &newState.ResultsShown
	}

	diff.Completed, diff.Reset = diffCompleted(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffCompleted assumes append-only behavior within a run. A shrinking list
// means the session was restarted.
func diffCompleted(old, new *SessionState) (*CompletedDelta, bool) {
	if old == nil {
		if len(new.CompletedIndices) == 0 {
			return nil, false
		}
		return &CompletedDelta{Appended: append([]int{}, new.CompletedIndices...)}, false
	}

	oldLen, newLen := len(old.CompletedIndices), len(new.CompletedIndices)
	switch {
	case newLen > oldLen:
		return &CompletedDelta{Appended: append([]int{}, new.CompletedIndices[oldLen:]...)}, false
	case newLen < oldLen:
		return nil, true
	default:
		return nil, false
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Active == nil &&
		d.CurrentIndex == nil &&
		d.Paused == nil &&
		d.ResultsShown == nil &&
		d.Completed == nil &&
		!d.Reset
}
