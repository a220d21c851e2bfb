package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// Engine is the subset of *stepwise.Engine the transport drives.
type Engine interface {
	OnOpen(ctx context.Context, sessionID string) error
	OnStart(ctx context.Context, sessionID string, opts ...stepwise.StartOption) (*domain.SessionState, error)
	OnDecision(ctx context.Context, sessionID string, d domain.Decision) (*stepwise.Outcome, error)
	OnViewResults(ctx context.Context, sessionID string) error
	Rerender(ctx context.Context, sessionID string) error
	View(ctx context.Context, sessionID string) (domain.ViewModel, error)
	Session(ctx context.Context, sessionID string) (*domain.SessionState, error)
}

// Server exposes the engine triggers over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a StreamManager, usually the one the engine renders to.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// StartRequest is the optional body of POST /sessions/{id}/start.
type StartRequest struct {
	ChannelID string `json:"channel_id,omitempty"`
}

// DecisionRequest is the body of POST /sessions/{id}/decisions.
type DecisionRequest struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// DecisionResponse is returned after a decision was applied.
type DecisionResponse struct {
	State     *domain.SessionState `json:"state"`
	Directive string               `json:"directive"`
	Terminal  bool                 `json:"terminal"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.Logger == nil {
		server.Logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.Logger)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if server.Metrics != nil {
		r.Handle("/metrics", server.Metrics)
	}

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", server.GetSession)
		r.Get("/view", server.GetView)
		r.Get("/events", server.SubscribeEvents)
		r.Post("/open", server.Open)
		r.Post("/start", server.Start)
		r.Post("/decisions", server.Decide)
		r.Post("/render", server.Rerender)
		r.Post("/results", server.ViewResults)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.Logger.Error("Failed to load OpenAPI document", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "stepwise-http",
		"version":     strings.TrimSpace(stepwise.Version),
		"api_version": apiVersion,
	})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// GetView handles GET /sessions/{id}/view.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := s.Engine.View(r.Context(), id)
	if err != nil {
		s.fail(w, "GetView", id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// Open handles POST /sessions/{id}/open.
func (s *Server) Open(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.OnOpen(r.Context(), id); err != nil {
		s.fail(w, "Open", id, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Start handles POST /sessions/{id}/start.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.Logger.Warn("Start: Invalid request body", "session_id", id, "err", err)
			s.writeError(w, http.StatusBadRequest)
			return
		}
	}

	var opts []stepwise.StartOption
	if body.ChannelID != "" {
		opts = append(opts, stepwise.WithChannel(body.ChannelID))
	}

	state, err := s.Engine.OnStart(r.Context(), id, opts...)
	if err != nil {
		s.fail(w, "Start", id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// Decide handles POST /sessions/{id}/decisions.
func (s *Server) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("Decide: Invalid request body", "session_id", id, "err", err)
		s.writeError(w, http.StatusBadRequest)
		return
	}

	// Sanitize Input (Global Policy)
	text := body.Text
	if text != "" {
		clean, err := runner.SanitizeInput(text)
		if err != nil {
			s.Logger.Warn("Decide: Input rejected", "session_id", id, "err", err, "size", len(text))
			s.writeError(w, http.StatusBadRequest)
			return
		}
		text = clean
	}

	d, err := domain.ParseDecision(body.Kind, text)
	if err != nil {
		s.fail(w, "Decide", id, err)
		return
	}

	out, err := s.Engine.OnDecision(r.Context(), id, d)
	if err != nil {
		s.fail(w, "Decide", id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DecisionResponse{
		State:     out.State,
		Directive: string(out.Directive),
		Terminal:  out.Terminal(),
	})
}

// Rerender handles POST /sessions/{id}/render.
func (s *Server) Rerender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.Rerender(r.Context(), id); err != nil {
		s.fail(w, "Rerender", id, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ViewResults handles POST /sessions/{id}/results.
func (s *Server) ViewResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.OnViewResults(r.Context(), id); err != nil {
		s.fail(w, "ViewResults", id, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		s.writeError(w, http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	s.Logger.Info("SSE: Subscribing to session updates", "session_id", id)

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: Client disconnected", "session_id", id)
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, evt.Data)
			flusher.Flush()
		}
	}
}

// fail logs the error and answers with the operator-safe apology.
func (s *Server) fail(w http.ResponseWriter, op, sessionID string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "session_id", sessionID, "err", err)
	} else {
		s.Logger.Warn(op+" rejected", "session_id", sessionID, "err", err)
	}
	s.writeError(w, status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRenderDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int) {
	s.writeJSON(w, status, errorResponse{Error: domain.ApologyMessage})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
