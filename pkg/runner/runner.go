package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Engine is the subset of *stepwise.Engine the runner drives.
type Engine interface {
	OnOpen(ctx context.Context, sessionID string) error
	OnStart(ctx context.Context, sessionID string, opts ...stepwise.StartOption) (*domain.SessionState, error)
	OnDecision(ctx context.Context, sessionID string, d domain.Decision) (*stepwise.Outcome, error)
	OnViewResults(ctx context.Context, sessionID string) error
	Rerender(ctx context.Context, sessionID string) error
}

// Notifier receives out-of-band text for the operator (help, apologies).
// The terminal surface and JSONHandler implement it.
type Notifier interface {
	Notice(text string)
}

// Runner feeds operator commands from a CommandSource into the engine for one
// session. Views and messages reach the operator through the engine's surface.
type Runner struct {
	Engine    Engine
	Source    CommandSource
	Notifier  Notifier
	SessionID string
	ChannelID string
	Logger    *slog.Logger

	// AutoStart begins a run right away instead of showing the welcome view.
	AutoStart bool
	// HandleSignals stops the loop on SIGINT/SIGTERM.
	HandleSignals bool
}

// NewRunner creates a Runner for the session.
func NewRunner(engine Engine, sessionID string, opts ...Option) *Runner {
	r := &Runner{
		Engine:        engine,
		SessionID:     sessionID,
		HandleSignals: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Source == nil {
		r.Source = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Notifier == nil {
		r.Notifier = writerNotifier{w: os.Stdout}
	}
	return r
}

// Run executes the command loop until the input ends, the operator quits or
// ctx is done. Engine errors are logged and shown as the generic apology; they
// never stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var signals *SignalManager
	if r.HandleSignals {
		signals = NewSignalManager()
		defer signals.Stop()
		go func() {
			select {
			case <-signals.Context().Done():
				r.Logger.Info("interrupt received, stopping runner", "session_id", r.SessionID)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if r.AutoStart {
		r.dispatch(ctx, Command{Trigger: TriggerStart})
	} else {
		r.dispatch(ctx, Command{Trigger: TriggerOpen})
	}

	for {
		cmd, err := r.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if signals != nil && signals.Interrupted() {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if cmd.Trigger == TriggerQuit {
			return nil
		}
		r.dispatch(ctx, cmd)
	}
}

func (r *Runner) dispatch(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Trigger {
	case TriggerOpen:
		err = r.Engine.OnOpen(ctx, r.SessionID)
	case TriggerStart:
		var opts []stepwise.StartOption
		if r.ChannelID != "" {
			opts = append(opts, stepwise.WithChannel(r.ChannelID))
		}
		_, err = r.Engine.OnStart(ctx, r.SessionID, opts...)
	case TriggerDecide:
		_, err = r.Engine.OnDecision(ctx, r.SessionID, cmd.Decision)
	case TriggerResults:
		err = r.Engine.OnViewResults(ctx, r.SessionID)
	case TriggerRender:
		err = r.Engine.Rerender(ctx, r.SessionID)
	case TriggerHelp:
		r.Notifier.Notice(HelpText)
	}

	if err != nil {
		r.Logger.Warn("command failed", "session_id", r.SessionID, "trigger", cmd.Trigger, "decision", cmd.Decision.String(), "err", err)
		r.Notifier.Notice(domain.ApologyMessage)
	}
}

type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Notice(text string) {
	fmt.Fprintln(n.w, text)
}
