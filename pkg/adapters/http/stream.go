package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/google/uuid"
)

// SSE event names.
const (
	EventView    = "view"
	EventMessage = "message"
	EventState   = "state"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// MessageEvent is the payload of a "message" event.
type MessageEvent struct {
	ChannelID string         `json:"channel_id"`
	ThreadID  string         `json:"thread_id"`
	Message   domain.Message `json:"message"`
}

// StreamManager handles active SSE connections.
// It implements ports.Surface: views and messages are pushed to the
// subscribers of the session (or channel) they address.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // key -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for key. The returned function unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(key string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 16)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[key]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, key)
				}
			}
		})
	}
}

// Subscribers returns the number of listeners for key.
func (sm *StreamManager) Subscribers(key string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[key])
}

// Broadcast sends an event to every listener of key. Slow clients drop events.
func (sm *StreamManager) Broadcast(key string, evt Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "key", key, "event", evt.Name, "payload_size", len(evt.Data))

	for ch := range sm.subscribers[key] {
		select {
		case ch <- evt:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping event", "key", key, "event", evt.Name)
		}
	}
}

func (sm *StreamManager) broadcastJSON(key, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	sm.Broadcast(key, Event{Name: name, Data: string(data)})
	return nil
}

// RenderView implements ports.Surface.
func (sm *StreamManager) RenderView(ctx context.Context, sessionID string, view domain.ViewModel) error {
	return sm.broadcastJSON(sessionID, EventView, view)
}

// PostMessage implements ports.Surface. A new thread id is allocated when
// threadID is empty.
func (sm *StreamManager) PostMessage(ctx context.Context, channelID string, msg domain.Message, threadID string) (string, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	if err := sm.broadcastJSON(channelID, EventMessage, MessageEvent{ChannelID: channelID, ThreadID: threadID, Message: msg}); err != nil {
		return "", err
	}
	return threadID, nil
}

// Hooks publishes a "state" event with the state diff of every transition,
// including the automatic ones that never pass through an HTTP handler.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(before, after *domain.SessionState) {
		diff := domain.Diff(before, after)
		if diff == nil {
			return
		}
		if err := sm.broadcastJSON(after.SessionID, EventState, diff); err != nil {
			sm.logger.Error("SSE: state diff not published", "session_id", after.SessionID, "err", err)
		}
	}
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, evt *domain.SessionEvent) {
			publish(nil, evt.State)
		},
		OnDecision: func(ctx context.Context, evt *domain.DecisionEvent) {
			publish(evt.Before, evt.After)
		},
	}
}
