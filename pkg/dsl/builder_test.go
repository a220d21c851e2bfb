package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("Churn review").
		Intro("Welcome").
		Results("Done.").
		Reports("Summary", "Cohorts")

	b.Thought("Look at the data").
		Detail("rows and columns").
		Then().
		Playbook("Design a test").
		Gate("Run it?").
		Then().
		Action("Launch")

	cat, err := b.Catalog()
	require.NoError(t, err)

	info := cat.Info()
	assert.Equal(t, "Churn review", info.Title)
	assert.Equal(t, "Welcome", info.Intro)
	assert.Equal(t, []string{"Summary", "Cohorts"}, info.Reports)

	require.Equal(t, 3, cat.Len())
	first, _ := cat.Step(0)
	assert.Equal(t, domain.KindThought, first.Kind)
	assert.Equal(t, "rows and columns", first.Detail)
	assert.False(t, first.RequiresApproval)

	gate, _ := cat.Step(1)
	assert.Equal(t, 1, gate.Index)
	assert.True(t, gate.RequiresApproval)
	assert.Equal(t, "Run it?", gate.ApprovalPrompt)

	last, _ := cat.Step(2)
	assert.Equal(t, domain.KindAction, last.Kind)
}

func TestBuilder_AllKinds(t *testing.T) {
	b := New("Kinds")
	b.Thought("a")
	b.Research("b")
	b.DomainKnowledge("c")
	b.Playbook("d")
	b.Action("e")

	cat, err := b.Build().LoadCatalog(context.Background())
	require.NoError(t, err)

	var kinds []domain.StepKind
	for _, s := range cat.Steps() {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []domain.StepKind{
		domain.KindThought, domain.KindResearch, domain.KindDomainKnowledge, domain.KindPlaybook, domain.KindAction,
	}, kinds)
}

func TestBuilder_Invalid(t *testing.T) {
	_, err := New("Empty").Catalog()
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	b := New("Gate without prompt")
	b.Playbook("Design").Gate("")
	_, err = b.Build().LoadCatalog(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}
