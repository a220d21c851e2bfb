package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Surface) {
	t.Helper()
	cat, err := domain.NewCatalog(domain.CatalogInfo{Title: "MCP Demo"},
		domain.Step{Index: 0, Kind: domain.KindResearch, Summary: "Pull the weekly numbers", RequiresApproval: true, ApprovalPrompt: "Use these?"},
		domain.Step{Index: 1, Kind: domain.KindAction, Summary: "Publish the report", RequiresApproval: true, ApprovalPrompt: "Publish?"},
	)
	require.NoError(t, err)

	surface := memory.NewSurface()
	eng, err := stepwise.New(
		stepwise.WithCatalog(cat),
		stepwise.WithSurface(surface),
		stepwise.WithFrameDelay(time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	return NewServer(eng, nil), surface
}

func TestServer_Workflow(t *testing.T) {
	s, surface := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStart(ctx, req, map[string]any{"session_id": "m1", "channel_id": "ops"})
	require.NoError(t, err)
	require.NotNil(t, resp.State)
	assert.Equal(t, "ops", resp.State.ChannelID)

	resp, err = s.handleDecide(ctx, req, map[string]any{"session_id": "m1", "kind": "reject"})
	require.NoError(t, err)
	assert.True(t, resp.State.Paused)
	assert.Equal(t, "open_discussion", resp.Directive)

	resp, err = s.handleDecide(ctx, req, map[string]any{"session_id": "m1", "kind": "branch:skip"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.State.CurrentIndex)

	resp, err = s.handleDecide(ctx, req, map[string]any{"session_id": "m1", "kind": "approve"})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)

	resp, err = s.handleGetSession(ctx, req, map[string]any{"session_id": "m1"})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, []int{0, 1}, resp.State.CompletedIndices)

	_, err = s.handleViewResults(ctx, req, map[string]any{"session_id": "m1"})
	require.NoError(t, err)

	resp, err = s.handleRerender(ctx, req, map[string]any{"session_id": "m1"})
	require.NoError(t, err)
	require.NotNil(t, resp.View)
	assert.Equal(t, "🎉 Analysis Complete!", resp.View.Blocks[0].Text)

	msgs := surface.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "ops", msgs[0].ChannelID)
}

func TestServer_ErrorsAreApologies(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	tests := []struct {
		name string
		call func() (ToolResponse, error)
	}{
		{"decide on unknown session", func() (ToolResponse, error) {
			return s.handleDecide(ctx, req, map[string]any{"session_id": "nobody", "kind": "approve"})
		}},
		{"unknown decision kind", func() (ToolResponse, error) {
			return s.handleDecide(ctx, req, map[string]any{"session_id": "nobody", "kind": "shrug"})
		}},
		{"wrongly typed args", func() (ToolResponse, error) {
			return s.handleGetSession(ctx, req, map[string]any{"session_id": []int{1}})
		}},
		{"missing session", func() (ToolResponse, error) {
			return s.handleGetSession(ctx, req, map[string]any{"session_id": "nobody"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			require.Error(t, err)
			assert.Equal(t, domain.ApologyMessage, err.Error())
		})
	}
}

func TestServer_GetViewWelcome(t *testing.T) {
	s, _ := newTestServer(t)
	resp, err := s.handleGetView(context.Background(), mcp.CallToolRequest{}, map[string]any{"session_id": "fresh"})
	require.NoError(t, err)
	require.NotNil(t, resp.View)
	assert.Equal(t, "MCP Demo", resp.View.Title)
}

func TestServer_CatalogResource(t *testing.T) {
	s, _ := newTestServer(t)
	text, err := s.catalogJSON()
	require.NoError(t, err)

	var doc struct {
		Title string        `json:"title"`
		Steps []domain.Step `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	assert.Equal(t, "MCP Demo", doc.Title)
	assert.Len(t, doc.Steps, 2)
}
