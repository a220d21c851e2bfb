package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState(sessionID)
		state.CurrentIndex = 2
		state.CompletedIndices = []int{0, 1}
		state.Generation = 5
		state.Paused = true
		state.ThreadID = "thread-1"
		state.Feedback = []string{"narrow the segment"}

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentIndex, loaded.CurrentIndex)
		assert.Equal(t, []int{0, 1}, loaded.CompletedIndices)
		assert.Equal(t, uint64(5), loaded.Generation)
		assert.True(t, loaded.Paused)
		assert.Equal(t, "thread-1", loaded.ThreadID)
		assert.Equal(t, []string{"narrow the segment"}, loaded.Feedback)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		state := domain.NewSessionState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.CurrentIndex = 9
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, loaded.CurrentIndex, "mutating the saved value must not leak into the store")

		loaded.CompletedIndices = append(loaded.CompletedIndices, 42)
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, again.CompletedIndices)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		a, b := sessionID+"-a", sessionID+"-b"
		stateA := domain.NewSessionState(a)
		stateA.CurrentIndex = 1
		stateA.CompletedIndices = []int{0}
		require.NoError(t, store.Save(ctx, a, stateA))
		require.NoError(t, store.Save(ctx, b, domain.NewSessionState(b)))
		defer func() {
			_ = store.Delete(ctx, a)
			_ = store.Delete(ctx, b)
		}()

		loadedB, err := store.Load(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, 0, loadedB.CurrentIndex)
		assert.Equal(t, b, loadedB.SessionID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSessionState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionState(id1))
		_ = store.Save(ctx, id2, domain.NewSessionState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
