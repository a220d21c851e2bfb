package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.SessionState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.SessionState)
	}
	s.data[sessionID] = state.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewSessionState(id)))

	var wg sync.WaitGroup
	concurrentWrites := 10

	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
				next := current.Clone()
				next.Generation++
				return next, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(concurrentWrites), state.Generation, "no update may be lost")
}

func TestManager_UpdateMissingSession(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	var sawNil bool
	state, err := manager.Update(ctx, "fresh", func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
		sawNil = current == nil
		return domain.NewSessionState("fresh"), nil
	})
	require.NoError(t, err)
	assert.True(t, sawNil)
	assert.Equal(t, "fresh", state.SessionID)

	loaded, err := manager.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, loaded.Active)
}

func TestManager_UpdateErrorDoesNotSave(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := manager.Update(ctx, "x", func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
		return domain.NewSessionState("x"), boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type countingLocker struct {
	mu    sync.Mutex
	locks int
	ttl   time.Duration
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.ttl = ttl
	l.mu.Unlock()
	return func(ctx context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	require.NoError(t, manager.Save(context.Background(), "a", domain.NewSessionState("a")))
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
