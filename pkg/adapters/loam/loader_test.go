package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T, files map[string]string) *Loader {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(absPath, name), []byte(content), 0644))
	}

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	require.NoError(t, err, "Failed to init loam repo")

	return New(loam.NewTypedRepository[StepMetadata](repo))
}

func TestLoader_LoadCatalog(t *testing.T) {
	loader := setupRepo(t, map[string]string{
		"index.md": `---
title: Churn Review
intro: Walks through the churn dashboard.
reports:
  - churn.pdf
---
Churn is down 3%.`,
		"02-act.md": `---
kind: action
requires_approval: true
approval_prompt: Ship the retention email?
---
Draft the retention email.`,
		"01-think.md": `---
kind: thought
detail: Monthly cohorts only.
---
Look at the cohorts.`,
	})

	cat, err := loader.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	first, _ := cat.Step(0)
	assert.Equal(t, domain.KindThought, first.Kind)
	assert.Equal(t, "Look at the cohorts.", first.Summary)
	assert.Equal(t, "Monthly cohorts only.", first.Detail)
	assert.False(t, first.RequiresApproval)

	second, _ := cat.Step(1)
	assert.Equal(t, domain.KindAction, second.Kind)
	assert.True(t, second.RequiresApproval)
	assert.Equal(t, "Ship the retention email?", second.ApprovalPrompt)

	info := cat.Info()
	assert.Equal(t, "Churn Review", info.Title)
	assert.Equal(t, "Walks through the churn dashboard.", info.Intro)
	assert.Equal(t, "Churn is down 3%.", info.Results)
	assert.Equal(t, []string{"churn.pdf"}, info.Reports)
}

func TestLoader_LoadCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "no steps",
			files: map[string]string{"index.md": "---\ntitle: Empty\n---\nNothing."},
		},
		{
			name: "unknown kind",
			files: map[string]string{
				"01.md": "---\nkind: daydream\n---\nHmm.",
			},
		},
		{
			name: "gate without prompt",
			files: map[string]string{
				"01.md": "---\nkind: action\nrequires_approval: true\n---\nDo it.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := setupRepo(t, tt.files)
			_, err := loader.LoadCatalog(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
		})
	}
}

func TestLoader_DetectsCollisions(t *testing.T) {
	loader := setupRepo(t, map[string]string{
		"foo.md":   "---\nkind: thought\n---\nMarkdown.",
		"foo.json": `{"kind": "thought"}`,
	})

	_, err := loader.LoadCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "01-think", trimExtension("01-think.md"))
	assert.Equal(t, "nested/step", trimExtension("nested/step.yaml"))
	assert.Equal(t, "plain", trimExtension("plain"))
}
