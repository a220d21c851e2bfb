package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// CatalogURI is the resource exposing the step catalog.
const CatalogURI = "stepwise://catalog"

// ToolResponse is the structured result shared by every tool.
type ToolResponse struct {
	State     *domain.SessionState `json:"state,omitempty" jsonschema_description:"The stored session state"`
	View      *domain.ViewModel    `json:"view,omitempty" jsonschema_description:"The operator view for the session"`
	Directive string               `json:"directive,omitempty" jsonschema_description:"Side effect that followed the decision"`
	Terminal  bool                 `json:"terminal" jsonschema_description:"Indicates if the workflow is finished"`
}

// Engine defines the interface required by the MCP server to drive Stepwise.
type Engine interface {
	OnStart(ctx context.Context, sessionID string, opts ...stepwise.StartOption) (*domain.SessionState, error)
	OnDecision(ctx context.Context, sessionID string, d domain.Decision) (*stepwise.Outcome, error)
	OnViewResults(ctx context.Context, sessionID string) error
	Rerender(ctx context.Context, sessionID string) error
	View(ctx context.Context, sessionID string) (domain.ViewModel, error)
	Session(ctx context.Context, sessionID string) (*domain.SessionState, error)
	Catalog() *domain.Catalog
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type startArgs struct {
	SessionID string `mapstructure:"session_id"`
	ChannelID string `mapstructure:"channel_id"`
}

type decideArgs struct {
	SessionID string `mapstructure:"session_id"`
	Kind      string `mapstructure:"kind"`
	Text      string `mapstructure:"text"`
}

// Server wraps the Stepwise Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("stepwise-mcp", strings.TrimSpace(stepwise.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_workflow",
		mcp.WithDescription("Start a new run of the workflow for a session, replacing any prior run."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithString("channel_id", mcp.Description("Channel for rejection threads (defaults to the session id)")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("decide",
		mcp.WithDescription("Apply an operator decision to the current step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithString("kind", mcp.Required(),
			mcp.Description("Decision kind"),
			mcp.Enum("approve", "reject", "skip", "branch:revise", "branch:alternative", "branch:skip", "feedback"),
		),
		mcp.WithString("text", mcp.Description("Free-form feedback, only for kind=feedback")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleDecide))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("get_view",
		mcp.WithDescription("Get the current operator view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetView))

	s.mcpServer.AddTool(mcp.NewTool("rerender",
		mcp.WithDescription("Render the current view again from stored state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleRerender))

	s.mcpServer.AddTool(mcp.NewTool("view_results",
		mcp.WithDescription("Render the detailed results of a finished session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Operator session id")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleViewResults))
}

func decodeArgs(args map[string]any, out any) error {
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDecision, err)
	}
	return nil
}

// fail logs err and hides it behind the operator-safe apology.
func (s *Server) fail(tool, sessionID string, err error) error {
	if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrInvalidDecision) {
		s.logger.Warn("MCP tool rejected", "tool", tool, "session_id", sessionID, "err", err)
	} else {
		s.logger.Error("MCP tool failed", "tool", tool, "session_id", sessionID, "err", err)
	}
	return errors.New(domain.ApologyMessage)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in startArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("start_workflow", "", err)
	}

	var opts []stepwise.StartOption
	if in.ChannelID != "" {
		opts = append(opts, stepwise.WithChannel(in.ChannelID))
	}
	state, err := s.engine.OnStart(ctx, in.SessionID, opts...)
	if err != nil {
		return ToolResponse{}, s.fail("start_workflow", in.SessionID, err)
	}
	return ToolResponse{State: state}, nil
}

func (s *Server) handleDecide(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in decideArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("decide", "", err)
	}

	text := in.Text
	if text != "" {
		clean, err := runner.SanitizeInput(text)
		if err != nil {
			return ToolResponse{}, s.fail("decide", in.SessionID, err)
		}
		text = clean
	}

	d, err := domain.ParseDecision(in.Kind, text)
	if err != nil {
		return ToolResponse{}, s.fail("decide", in.SessionID, err)
	}
	out, err := s.engine.OnDecision(ctx, in.SessionID, d)
	if err != nil {
		return ToolResponse{}, s.fail("decide", in.SessionID, err)
	}
	return ToolResponse{
		State:     out.State,
		Directive: string(out.Directive),
		Terminal:  out.Terminal(),
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("get_session", "", err)
	}
	state, err := s.engine.Session(ctx, in.SessionID)
	if err != nil {
		return ToolResponse{}, s.fail("get_session", in.SessionID, err)
	}
	return s.withTerminal(ToolResponse{State: state}), nil
}

func (s *Server) handleGetView(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("get_view", "", err)
	}
	view, err := s.engine.View(ctx, in.SessionID)
	if err != nil {
		return ToolResponse{}, s.fail("get_view", in.SessionID, err)
	}
	return ToolResponse{View: &view}, nil
}

func (s *Server) handleRerender(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("rerender", "", err)
	}
	if err := s.engine.Rerender(ctx, in.SessionID); err != nil {
		return ToolResponse{}, s.fail("rerender", in.SessionID, err)
	}
	return s.handleGetView(ctx, request, args)
}

func (s *Server) handleViewResults(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, s.fail("view_results", "", err)
	}
	if err := s.engine.OnViewResults(ctx, in.SessionID); err != nil {
		return ToolResponse{}, s.fail("view_results", in.SessionID, err)
	}
	return ToolResponse{Terminal: true}, nil
}

func (s *Server) withTerminal(resp ToolResponse) ToolResponse {
	if resp.State != nil {
		resp.Terminal = resp.State.Phase(s.engine.Catalog().Len()).IsTerminal()
	}
	return resp
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Step Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.catalogJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}

func (s *Server) catalogJSON() (string, error) {
	cat := s.engine.Catalog()
	doc := struct {
		domain.CatalogInfo
		Steps []domain.Step `json:"steps"`
	}{CatalogInfo: cat.Info(), Steps: cat.Steps()}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog: %w", err)
	}
	return string(data), nil
}
