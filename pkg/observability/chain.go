package observability

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Chain merges several hook sets. Each callback runs the non-nil callbacks of
// every set in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSessionStart = chain(out.OnSessionStart, h.OnSessionStart)
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnDecision = chain(out.OnDecision, h.OnDecision)
		out.OnTerminal = chain(out.OnTerminal, h.OnTerminal)
		out.OnRenderError = chain(out.OnRenderError, h.OnRenderError)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case next == nil:
		return first
	case first == nil:
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
