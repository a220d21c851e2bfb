package stepwise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/catalog"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/scheduler"
	"github.com/aretw0/stepwise/pkg/session"
)

// Defaults for the timed parts of a workflow.
const (
	DefaultFrameDelay       = 40 * time.Millisecond
	DefaultAutoAdvanceDelay = 2 * time.Second
	DefaultRenderRetries    = 2
	DefaultRetryBackoff     = 50 * time.Millisecond
)

// Outcome is the result of applying a decision.
type Outcome = runtime.Outcome

// errStale marks deferred work that lost the race against a newer transition.
var errStale = errors.New("stale generation")

// Engine is the high-level entry point for the Stepwise library.
// It receives the surface triggers, applies transitions through the pure
// controller under a per-session lock and drives the timed rendering.
type Engine struct {
	catalog    *domain.Catalog
	loader     ports.CatalogLoader
	controller *runtime.Controller
	presenter  *runtime.Presenter

	store     ports.SessionStore
	locker    ports.DistributedLocker
	sessions  *session.Manager
	surface   ports.Surface
	scheduler *scheduler.Scheduler

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	chunkSize        int
	frameDelay       time.Duration
	autoAdvanceDelay time.Duration
	renderRetries    int
	retryBackoff     time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog sets the step catalog directly.
func WithCatalog(c *domain.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLoader injects a CatalogLoader. It is ignored when WithCatalog is also given.
func WithLoader(l ports.CatalogLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker enables distributed session locking across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithSurface sets the host surface views and messages are delivered to.
func WithSurface(s ports.Surface) Option {
	return func(e *Engine) {
		e.surface = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithChunkSize sets how many tokens each reveal frame adds.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		e.chunkSize = n
	}
}

// WithFrameDelay sets the delay between reveal frames.
func WithFrameDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.frameDelay = d
	}
}

// WithAutoAdvanceDelay sets how long a step that needs no approval stays on
// screen before the workflow moves on.
func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.autoAdvanceDelay = d
	}
}

// WithRenderRetries sets how many times a failed view render is retried and the
// base backoff between attempts.
func WithRenderRetries(n int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.renderRetries = n
		e.retryBackoff = backoff
	}
}

// New initializes a new Stepwise Engine.
// Without WithCatalog or WithLoader the embedded default catalog is used.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		chunkSize:        runtime.DefaultChunkSize,
		frameDelay:       DefaultFrameDelay,
		autoAdvanceDelay: DefaultAutoAdvanceDelay,
		renderRetries:    DefaultRenderRetries,
		retryBackoff:     DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.catalog == nil {
		var err error
		if eng.loader != nil {
			eng.catalog, err = eng.loader.LoadCatalog(context.Background())
		} else {
			eng.catalog, err = catalog.Default()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	if eng.chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", eng.chunkSize)
	}
	if eng.frameDelay < 0 || eng.autoAdvanceDelay < 0 || eng.retryBackoff < 0 || eng.renderRetries < 0 {
		return nil, fmt.Errorf("delays and retries must not be negative")
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.surface == nil {
		eng.surface = memory.NewSurface()
	}

	eng.logger = eng.logger.With("catalog", eng.catalog.Info().Title)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	eng.scheduler = scheduler.New(scheduler.WithLogger(eng.logger))
	eng.controller = runtime.NewController(eng.catalog)
	eng.presenter = runtime.NewPresenter(eng.catalog)

	return eng, nil
}

// Catalog returns the catalog the engine walks.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// Store returns the session store.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// Surface returns the surface the engine renders to.
func (e *Engine) Surface() ports.Surface {
	return e.surface
}

// StartOption configures OnStart.
type StartOption func(*startConfig)

type startConfig struct {
	channelID string
}

// WithChannel sets the channel rejection threads are opened in.
func WithChannel(channelID string) StartOption {
	return func(c *startConfig) {
		c.channelID = channelID
	}
}

// OnOpen renders the operator's view: the welcome screen for a new operator or
// the current view of a session in progress.
func (e *Engine) OnOpen(ctx context.Context, sessionID string) error {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return e.renderView(ctx, sessionID, e.presenter.Welcome())
	}
	return e.renderView(ctx, sessionID, e.presenter.Current(state))
}

// OnStart begins a new run for the session, overwriting any prior run, and
// starts revealing step 0.
func (e *Engine) OnStart(ctx context.Context, sessionID string, opts ...StartOption) (*domain.SessionState, error) {
	cfg := startConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var out *Outcome
	state, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
		out = e.controller.Start(sessionID, current)
		if cfg.channelID != "" {
			out.State.ChannelID = cfg.channelID
		}
		return out.State, nil
	})
	if err != nil {
		return nil, err
	}
	e.scheduler.Supersede(sessionID, state.Generation)

	e.logger.Info("session started", "session_id", sessionID, "generation", state.Generation)
	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, &domain.SessionEvent{
			EventBase: domain.NewEventBase(domain.EventSessionStart, sessionID),
			State:     state.Clone(),
		})
	}

	e.enterStep(ctx, state, *out.Step)
	return state, nil
}

// OnDecision applies an operator decision. Once the transition commits, any
// reveal or auto-advance still pending for the session is cancelled; a rejected
// decision leaves that work running.
// A decision for an unknown, idle or finished session fails with ErrInvalidState.
func (e *Engine) OnDecision(ctx context.Context, sessionID string, d domain.Decision) (*Outcome, error) {
	if d.Kind == domain.DecisionFeedback {
		d.Text = strings.TrimSpace(d.Text)
	}
	return e.decide(ctx, sessionID, d, nil)
}

// decide runs a transition under the session lock. When guard is non-nil it
// can veto the transition (used by the auto-advance timer to drop stale work).
func (e *Engine) decide(ctx context.Context, sessionID string, d domain.Decision, guard func(*domain.SessionState) error) (*Outcome, error) {
	var (
		out    *Outcome
		before *domain.SessionState
	)
	_, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
		if guard != nil {
			if err := guard(current); err != nil {
				return nil, err
			}
		}
		var err error
		out, err = e.controller.Decide(current, d)
		if err != nil {
			return nil, err
		}
		before = current
		return out.State, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			e.logger.Warn("decision rejected", "session_id", sessionID, "decision", d.String(), "err", err)
		}
		return nil, err
	}
	e.scheduler.Supersede(sessionID, out.State.Generation)

	e.logger.Info("decision applied",
		"session_id", sessionID,
		"decision", d.String(),
		"automatic", d.Automatic,
		"step", before.CurrentIndex,
		"generation", out.State.Generation,
	)
	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(ctx, &domain.DecisionEvent{
			EventBase: domain.NewEventBase(domain.EventDecision, sessionID),
			Decision:  d,
			Before:    before.Clone(),
			After:     out.State.Clone(),
		})
	}

	e.apply(ctx, out)
	return out, nil
}

// apply performs the side effects of a committed transition. Failures are
// logged; the state has already advanced and Rerender can repair the view.
func (e *Engine) apply(ctx context.Context, out *Outcome) {
	state := out.State
	id := state.SessionID

	if ack, ok := runtime.Acknowledgement(out.Decision); ok && out.ThreadID != "" {
		_, _ = e.postMessage(ctx, state.Channel(), id, ack, out.ThreadID)
	}

	switch out.Directive {
	case runtime.DirectiveRevealStep:
		e.enterStep(ctx, state, *out.Step)

	case runtime.DirectiveOpenDiscussion:
		_ = e.renderView(ctx, id, e.presenter.Paused(state))
		thread, err := e.postMessage(ctx, state.Channel(), id, runtime.DiscussionOpened(*out.Step), "")
		if err != nil {
			return
		}
		e.attachThread(ctx, state, thread)

	case runtime.DirectiveShowResults:
		_ = e.renderView(ctx, id, e.presenter.Results(state))
		if e.hooks.OnTerminal != nil {
			e.hooks.OnTerminal(ctx, &domain.SessionEvent{
				EventBase: domain.NewEventBase(domain.EventTerminal, id),
				State:     state.Clone(),
				Duration:  state.UpdatedAt.Sub(state.StartedAt),
			})
		}
		e.logger.Info("session finished", "session_id", id, "generation", state.Generation)
	}
}

// attachThread records the discussion thread on the session unless a newer
// transition already happened.
func (e *Engine) attachThread(ctx context.Context, state *domain.SessionState, threadID string) {
	_, err := e.sessions.Update(ctx, state.SessionID, func(ctx context.Context, current *domain.SessionState) (*domain.SessionState, error) {
		if current == nil || current.Generation != state.Generation {
			return nil, nil
		}
		next := current.Clone()
		next.ThreadID = threadID
		return next, nil
	})
	if err != nil {
		e.logger.Error("failed to record discussion thread", "session_id", state.SessionID, "err", err)
	}
}

// enterStep schedules the reveal of step and, for steps that need no approval,
// the auto-advance that follows it. All of it is bound to the state generation.
func (e *Engine) enterStep(ctx context.Context, state *domain.SessionState, step domain.Step) {
	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ctx, &domain.StepEvent{
			EventBase: domain.NewEventBase(domain.EventStepEnter, state.SessionID),
			Step:      step,
		})
	}

	snapshot := state.Clone()
	id := snapshot.SessionID
	gen := snapshot.Generation

	// A newer transition may already have scheduled its own work; then this
	// generation is stale and the scheduler refuses it.
	if !e.scheduler.Schedule(id, gen, func(ctx context.Context) {
		for _, frame := range runtime.RevealN(step, e.chunkSize) {
			if frame.Seq > 0 && !scheduler.Sleep(ctx, e.frameDelay) {
				return
			}
			err := e.sessions.WithLock(ctx, id, func(ctx context.Context) error {
				if err := e.checkGeneration(ctx, id, gen); err != nil {
					return err
				}
				return e.renderView(ctx, id, e.presenter.Step(snapshot, frame))
			})
			if errors.Is(err, errStale) || ctx.Err() != nil {
				return
			}
		}

		if step.RequiresApproval {
			return
		}
		if !scheduler.Sleep(ctx, e.autoAdvanceDelay) {
			return
		}

		// The transition below schedules the next step for this session, which
		// cancels ctx; the rest of this run must not depend on it.
		ctx = context.WithoutCancel(ctx)
		auto := domain.Decision{Kind: domain.DecisionApprove, Automatic: true}
		_, err := e.decide(ctx, id, auto, func(current *domain.SessionState) error {
			if current == nil || current.Generation != gen {
				return errStale
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStale) {
			e.logger.Error("auto-advance failed", "session_id", id, "generation", gen, "err", err)
		}
	}) {
		e.logger.Debug("step reveal not scheduled", "session_id", id, "generation", gen)
	}
}

func (e *Engine) checkGeneration(ctx context.Context, sessionID string, gen uint64) error {
	current, err := e.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return errStale
		}
		return err
	}
	if current.Generation != gen {
		return errStale
	}
	return nil
}

// OnViewResults renders the detailed results of a finished session.
func (e *Engine) OnViewResults(ctx context.Context, sessionID string) error {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return &domain.InvalidStateError{SessionID: sessionID, Phase: domain.PhaseIdle, Decision: domain.ActionViewResults, Reason: "no workflow in progress"}
		}
		return err
	}
	if phase := state.Phase(e.catalog.Len()); phase != domain.PhaseTerminal {
		return &domain.InvalidStateError{SessionID: sessionID, Phase: phase, Decision: domain.ActionViewResults, Reason: "results are shown once all steps are done"}
	}
	return e.renderView(ctx, sessionID, e.presenter.ResultsDetail(state))
}

// Rerender renders the current view of the session again from stored state.
// It never re-runs a transition.
func (e *Engine) Rerender(ctx context.Context, sessionID string) error {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.renderView(ctx, sessionID, e.presenter.Current(state))
}

// View returns the current view of the session without rendering it.
func (e *Engine) View(ctx context.Context, sessionID string) (domain.ViewModel, error) {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return e.presenter.Welcome(), nil
		}
		return domain.ViewModel{}, err
	}
	return e.presenter.Current(state), nil
}

// Session returns a copy of the stored session state.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists known session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// DeleteSession cancels pending work for the session and removes it from the store.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	e.scheduler.Cancel(sessionID)
	return e.sessions.Delete(ctx, sessionID)
}

// Wait blocks until all scheduled reveal and auto-advance work has finished.
func (e *Engine) Wait() {
	e.scheduler.Wait()
}

// Close cancels all scheduled work and waits for it to stop.
func (e *Engine) Close() {
	e.scheduler.Close()
}

// renderView delivers a view, retrying with linear backoff.
func (e *Engine) renderView(ctx context.Context, sessionID string, view domain.ViewModel) error {
	var err error
	for attempt := 0; attempt <= e.renderRetries; attempt++ {
		if attempt > 0 && !scheduler.Sleep(ctx, e.retryBackoff*time.Duration(attempt)) {
			break
		}
		if err = e.surface.RenderView(ctx, sessionID, view); err == nil {
			return nil
		}
		e.logger.Debug("render attempt failed", "session_id", sessionID, "attempt", attempt+1, "err", err)
	}
	return e.deliveryFailed(ctx, sessionID, "render_view", err)
}

// postMessage is not retried: a message that may have been delivered must not be duplicated.
func (e *Engine) postMessage(ctx context.Context, channelID, sessionID string, msg domain.Message, threadID string) (string, error) {
	thread, err := e.surface.PostMessage(ctx, channelID, msg, threadID)
	if err != nil {
		return "", e.deliveryFailed(ctx, sessionID, "post_message", err)
	}
	return thread, nil
}

func (e *Engine) deliveryFailed(ctx context.Context, sessionID, op string, err error) error {
	e.logger.Error("render delivery failed", "session_id", sessionID, "op", op, "err", err)
	if e.hooks.OnRenderError != nil {
		e.hooks.OnRenderError(ctx, &domain.RenderErrorEvent{
			EventBase: domain.NewEventBase(domain.EventRenderError, sessionID),
			Op:        op,
			Err:       err,
		})
	}
	return &domain.RenderDeliveryError{SessionID: sessionID, Op: op, Err: err}
}
