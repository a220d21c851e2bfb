package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
)

// PostedMessage is a message recorded by Surface.
type PostedMessage struct {
	ChannelID string
	ThreadID  string
	Message   domain.Message
}

// Surface implements ports.Surface by recording every call.
// It is used by tests and by headless deployments that poll the last view.
// Safe for concurrent use.
type Surface struct {
	mu       sync.Mutex
	views    map[string][]domain.ViewModel
	messages []PostedMessage
	threads  int

	// Fail, when set, is consulted before every call. A non-nil result is returned
	// as the delivery error.
	Fail func(op string) error
}

// NewSurface creates an empty recording surface.
func NewSurface() *Surface {
	return &Surface{
		views: make(map[string][]domain.ViewModel),
	}
}

// RenderView records the view.
func (s *Surface) RenderView(ctx context.Context, sessionID string, view domain.ViewModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail != nil {
		if err := s.Fail("render_view"); err != nil {
			return err
		}
	}
	s.views[sessionID] = append(s.views[sessionID], view)
	return nil
}

// PostMessage records the message and allocates a thread id when threadID is empty.
func (s *Surface) PostMessage(ctx context.Context, channelID string, msg domain.Message, threadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail != nil {
		if err := s.Fail("post_message"); err != nil {
			return "", err
		}
	}
	if threadID == "" {
		s.threads++
		threadID = fmt.Sprintf("%s-thread-%d", channelID, s.threads)
	}
	s.messages = append(s.messages, PostedMessage{ChannelID: channelID, ThreadID: threadID, Message: msg})
	return threadID, nil
}

// SetFail replaces the failure injector.
func (s *Surface) SetFail(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = fn
}

// Views returns every view rendered for the session, oldest first.
func (s *Surface) Views(sessionID string) []domain.ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ViewModel(nil), s.views[sessionID]...)
}

// LastView returns the most recent view rendered for the session.
func (s *Surface) LastView(sessionID string) (domain.ViewModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := s.views[sessionID]
	if len(views) == 0 {
		return domain.ViewModel{}, false
	}
	return views[len(views)-1], true
}

// Messages returns every posted message, oldest first.
func (s *Surface) Messages() []PostedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PostedMessage(nil), s.messages...)
}
