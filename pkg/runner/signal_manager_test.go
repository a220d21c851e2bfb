package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	first := sm.Context()
	assert.NoError(t, first.Err())

	sm.Reset()
	second := sm.Context()
	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())

	sm.Stop()
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestSignalManager_Interrupted(t *testing.T) {
	sm := NewSignalManager()

	start := time.Now()
	assert.False(t, sm.Interrupted())
	assert.GreaterOrEqual(t, time.Since(start), raceWindow)

	sm.Stop()
	assert.True(t, sm.Interrupted())
}
