package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepwise/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_start", "session_id", e.SessionID, "channel", e.State.Channel())
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter",
				"session_id", e.SessionID,
				"step", e.Step.Number(),
				"kind", e.Step.Kind,
				"requires_approval", e.Step.RequiresApproval,
			)
		},
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			attrs := []any{"session_id", e.SessionID, "decision", e.Decision.String(), "automatic", e.Decision.Automatic}
			if e.Before != nil {
				attrs = append(attrs, "step", e.Before.CurrentIndex+1)
			}
			if e.After != nil {
				attrs = append(attrs, "generation", e.After.Generation)
			}
			logger.InfoContext(ctx, "decision", attrs...)
		},
		OnTerminal: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_complete", "session_id", e.SessionID, "duration", e.Duration)
		},
		OnRenderError: func(ctx context.Context, e *domain.RenderErrorEvent) {
			logger.ErrorContext(ctx, "render_error", "session_id", e.SessionID, "op", e.Op, "err", e.Err)
		},
	}
}
