package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
)

// InvalidCommandText is the error envelope sent for a line that cannot be
// parsed. The cause is logged, never echoed.
const InvalidCommandText = `invalid command, send {"trigger":"help"} for the list of commands`

// JSONHandler implements structured JSON-Lines communication.
// It reads commands such as {"kind":"approve"} or {"trigger":"start"} and, as a
// ports.Surface, writes every view and message as one JSON line.
type JSONHandler struct {
	Reader *bufio.Reader
	Logger *slog.Logger

	mu      sync.Mutex
	encoder *json.Encoder
	threads int
}

// Envelope is one line of JSON output.
type Envelope struct {
	Type      string            `json:"type"` // "view", "message" or "error"
	SessionID string            `json:"session_id,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	ThreadID  string            `json:"thread_id,omitempty"`
	View      *domain.ViewModel `json:"view,omitempty"`
	Message   *domain.Message   `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type jsonCommand struct {
	Trigger string `json:"trigger"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Logger:  logging.NewNop(),
		encoder: json.NewEncoder(w),
	}
}

// Next implements CommandSource. A line is either a JSON object or a plain
// text command.
func (h *JSONHandler) Next(ctx context.Context) (Command, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Command{}, err
		}

		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return Command{}, err
			}
			continue
		}

		cmd, perr := h.parse(line)
		if perr != nil {
			h.Logger.Warn("invalid command line", "err", perr, "size", len(line))
			h.emit(Envelope{Type: "error", Error: InvalidCommandText})
			if err != nil {
				return Command{}, err
			}
			continue
		}
		return cmd, nil
	}
}

func (h *JSONHandler) parse(line string) (Command, error) {
	if !strings.HasPrefix(line, "{") {
		clean, err := SanitizeInput(line)
		if err != nil {
			return Command{}, err
		}
		return ParseCommand(clean)
	}

	var in jsonCommand
	if err := json.Unmarshal([]byte(line), &in); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	clean, err := SanitizeInput(in.Text)
	if err != nil {
		return Command{}, err
	}

	if in.Kind != "" {
		d, err := domain.ParseDecision(in.Kind, clean)
		if err != nil {
			return Command{}, err
		}
		return Command{Trigger: TriggerDecide, Decision: d}, nil
	}
	return ParseCommand(in.Trigger)
}

// RenderView implements ports.Surface.
func (h *JSONHandler) RenderView(ctx context.Context, sessionID string, view domain.ViewModel) error {
	return h.emit(Envelope{Type: "view", SessionID: sessionID, View: &view})
}

// PostMessage implements ports.Surface.
func (h *JSONHandler) PostMessage(ctx context.Context, channelID string, msg domain.Message, threadID string) (string, error) {
	h.mu.Lock()
	if threadID == "" {
		h.threads++
		threadID = fmt.Sprintf("%s/%d", channelID, h.threads)
	}
	h.mu.Unlock()

	if err := h.emit(Envelope{Type: "message", ChannelID: channelID, ThreadID: threadID, Message: &msg}); err != nil {
		return "", err
	}
	return threadID, nil
}

// Notice implements Notifier by emitting an error envelope.
func (h *JSONHandler) Notice(text string) {
	_ = h.emit(Envelope{Type: "error", Error: text})
}

func (h *JSONHandler) emit(e Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(e)
}
