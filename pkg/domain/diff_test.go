package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *SessionState
		new      *SessionState
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     1,
				CompletedIndices: []int{0},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				CurrentIndex: &[]int{1}[0],
				Completed:    &CompletedDelta{Appended: []int{0}},
			},
		},
		{
			name: "No Changes",
			old: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     1,
				CompletedIndices: []int{0},
			},
			new: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     1,
				CompletedIndices: []int{0},
				Generation:       7, // not observable
			},
			wantDiff: nil,
		},
		{
			name: "Advance Appends Completed",
			old: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     1,
				CompletedIndices: []int{0},
			},
			new: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     2,
				CompletedIndices: []int{0, 1},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				CurrentIndex: &[]int{2}[0],
				Completed:    &CompletedDelta{Appended: []int{1}},
			},
		},
		{
			name: "Rejection Pauses",
			old: &SessionState{
				SessionID:    "sess-1",
				Active:       true,
				CurrentIndex: 1,
			},
			new: &SessionState{
				SessionID:    "sess-1",
				Active:       true,
				CurrentIndex: 1,
				Paused:       true,
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Paused:    &[]bool{true}[0],
			},
		},
		{
			name: "Restart Resets",
			old: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     2,
				CompletedIndices: []int{0, 1},
			},
			new: &SessionState{
				SessionID:        "sess-1",
				Active:           true,
				CurrentIndex:     0,
				CompletedIndices: []int{},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				CurrentIndex: &[]int{0}[0],
				Reset:        true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !equalPtr(got.CurrentIndex, tt.wantDiff.CurrentIndex) {
				t.Errorf("Diff().CurrentIndex = %v, want %v", got.CurrentIndex, tt.wantDiff.CurrentIndex)
			}
			if !equalPtr(got.Paused, tt.wantDiff.Paused) {
				t.Errorf("Diff().Paused = %v, want %v", got.Paused, tt.wantDiff.Paused)
			}
			if !reflect.DeepEqual(got.Completed, tt.wantDiff.Completed) {
				t.Errorf("Diff().Completed = %v, want %v", got.Completed, tt.wantDiff.Completed)
			}
			if got.Reset != tt.wantDiff.Reset {
				t.Errorf("Diff().Reset = %v, want %v", got.Reset, tt.wantDiff.Reset)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Fields Omitted", func(t *testing.T) {
		s1 := &SessionState{SessionID: "s", Active: true, CurrentIndex: 1}
		s2 := &SessionState{SessionID: "s", Active: true, CurrentIndex: 1, Paused: true}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"current_index"`) {
			t.Errorf("JSON should not contain 'current_index' when unchanged, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"paused":true`) {
			t.Errorf("JSON should contain 'paused':true, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
