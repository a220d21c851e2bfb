package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	view := domain.ViewModel{
		Title: "Demo",
		Blocks: []domain.Block{
			{Type: domain.BlockHeader, Text: "Demo - Step 1"},
			{Type: domain.BlockSection, Text: "*Step 1:*\nLook around"},
			{Type: domain.BlockDivider},
			{Type: domain.BlockActions, Actions: []domain.Action{{ID: "approve", Label: "✅ Approve & Continue"}}},
			{Type: domain.BlockContext, Text: "Progress: 0/2 steps completed"},
		},
	}

	md := Markdown(view)
	assert.Equal(t, "# Demo - Step 1\n\n*Step 1:*\nLook around\n\n---\n\n- `approve` ✅ Approve & Continue\n\n_Progress: 0/2 steps completed_\n", md)
}

func TestSurface_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	ctx := context.Background()

	require.NoError(t, s.RenderView(ctx, "s1", domain.ViewModel{Blocks: []domain.Block{{Type: domain.BlockSection, Text: "hello"}}}))
	assert.Equal(t, "hello\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[", "piped output must not carry escape codes")

	buf.Reset()
	thread, err := s.PostMessage(ctx, "ops", domain.Message{Text: "rejected"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ops/1", thread)
	assert.Equal(t, "💬 [ops/1]\nrejected\n", buf.String())

	again, err := s.PostMessage(ctx, "ops", domain.Message{Text: "ack"}, thread)
	require.NoError(t, err)
	assert.Equal(t, thread, again)

	next, err := s.PostMessage(ctx, "ops", domain.Message{Text: "second"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ops/2", next)
}

func TestSurface_CustomRenderer(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, WithRenderer(func(md string) (string, error) {
		return strings.ToUpper(md), nil
	}))

	require.NoError(t, s.RenderView(context.Background(), "s1", domain.ViewModel{Blocks: []domain.Block{{Type: domain.BlockHeader, Text: "title"}}}))
	assert.Equal(t, "# TITLE\n", buf.String())

	buf.Reset()
	s.Notice("type help")
	assert.Equal(t, "type help\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
}
