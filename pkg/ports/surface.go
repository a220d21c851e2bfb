package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Surface is the host UI collaborator (a chat home tab, a terminal, an SSE stream).
// The engine never assumes delivery succeeded; errors are reported back as
// domain.RenderDeliveryError.
type Surface interface {
	// RenderView replaces the operator's current view for the session.
	RenderView(ctx context.Context, sessionID string, view domain.ViewModel) error

	// PostMessage posts msg to channelID. When threadID is empty a new thread is
	// started and its id returned; otherwise the message is a reply in that thread.
	PostMessage(ctx context.Context, channelID string, msg domain.Message, threadID string) (string, error)
}
