package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ContentRenderer transforms Markdown before it is written.
type ContentRenderer func(string) (string, error)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is attached to a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Surface implements ports.Surface on a terminal or any writer.
// On a TTY every view replaces the screen and is rendered through glamour;
// otherwise plain Markdown is appended to the stream.
type Surface struct {
	mu       sync.Mutex
	out      *termenv.Output
	w        io.Writer
	interact bool
	renderer ContentRenderer
	threads  map[string]int
}

// Option configures the Surface.
type Option func(*Surface)

// WithRenderer overrides the Markdown renderer.
func WithRenderer(r ContentRenderer) Option {
	return func(s *Surface) {
		s.renderer = r
	}
}

// WithInteractive forces TTY behaviour on or off.
func WithInteractive(interactive bool) Option {
	return func(s *Surface) {
		s.interact = interactive
	}
}

// New creates a Surface writing to w.
func New(w io.Writer, opts ...Option) *Surface {
	s := &Surface{
		w:        w,
		interact: IsTerminal(w),
		threads:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.interact {
		s.out = termenv.NewOutput(w)
		if s.renderer == nil {
			s.renderer = NewRenderer()
		}
	} else {
		s.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}
	return s
}

// RenderView implements ports.Surface.
func (s *Surface) RenderView(ctx context.Context, sessionID string, view domain.ViewModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interact {
		s.out.ClearScreen()
	}
	return s.write(Markdown(view))
}

// PostMessage implements ports.Surface. Threads are numbered per channel.
func (s *Surface) PostMessage(ctx context.Context, channelID string, msg domain.Message, threadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threadID == "" {
		s.threads[channelID]++
		threadID = fmt.Sprintf("%s/%d", channelID, s.threads[channelID])
	}

	label := s.out.String(fmt.Sprintf("💬 [%s]", threadID)).Bold()
	if s.interact {
		label = label.Foreground(s.out.Color("#a78bfa"))
	}
	if _, err := fmt.Fprintln(s.w, label.String()); err != nil {
		return "", err
	}
	if err := s.write(MessageMarkdown(msg)); err != nil {
		return "", err
	}
	return threadID, nil
}

// Notice prints an out-of-band line such as a help text or an apology.
func (s *Surface) Notice(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	styled := s.out.String(text)
	if s.interact {
		styled = styled.Faint()
	}
	fmt.Fprintln(s.w, styled.String())
}

func (s *Surface) write(markdown string) error {
	output := markdown
	if s.renderer != nil {
		if rendered, err := s.renderer(markdown); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(s.w, strings.TrimRight(output, "\n"))
	return err
}
