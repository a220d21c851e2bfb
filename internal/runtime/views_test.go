package runtime_test

import (
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionsOf(v domain.ViewModel) []string {
	var ids []string
	for _, b := range v.Blocks {
		for _, a := range b.Actions {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestPresenter_Step(t *testing.T) {
	cat := threeSteps(t)
	p := runtime.NewPresenter(cat)
	c := runtime.NewController(cat)

	state := c.Start("a", nil).State
	out, err := c.Decide(state, domain.Approve())
	require.NoError(t, err)
	state = out.State

	t.Run("Partial Frame Has No Affordances", func(t *testing.T) {
		v := p.Step(state, domain.RevealFrame{Text: "Design a |"})
		assert.Equal(t, "Demo - Step 2", v.Blocks[0].Text)
		assert.Empty(t, actionsOf(v))
	})

	t.Run("Final Frame Of Gated Step Shows Approval", func(t *testing.T) {
		v := p.Step(state, domain.RevealFrame{Text: "Design a geo test", IsFinal: true})
		assert.Equal(t, []string{"approve", "reject"}, actionsOf(v))
		last := v.Blocks[len(v.Blocks)-1]
		assert.Equal(t, domain.BlockContext, last.Type)
		assert.Equal(t, "Progress: 1/3 steps completed", last.Text)
		assert.Contains(t, v.Blocks[1].Text, "Completed Steps")
		assert.Contains(t, v.Blocks[1].Text, "_Columns and rows_")
	})
}

func TestPresenter_Current(t *testing.T) {
	cat := threeSteps(t)
	p := runtime.NewPresenter(cat)

	assert.Equal(t, []string{domain.ActionStart}, actionsOf(p.Current(nil)))

	paused := domain.NewSessionState("a")
	paused.Paused = true
	v := p.Current(paused)
	assert.Contains(t, v.Blocks[1].Text, "Step Rejected")
	assert.Empty(t, actionsOf(v))

	done := domain.NewSessionState("a")
	done.CurrentIndex = 3
	done.CompletedIndices = []int{0, 1, 2}
	v = p.Current(done)
	assert.Equal(t, "🎉 Analysis Complete!", v.Blocks[0].Text)
	assert.Equal(t, []string{domain.ActionViewResults, domain.ActionStart}, actionsOf(v))

	detail := p.ResultsDetail(done)
	assert.Equal(t, "📊 Detailed Analysis Results", detail.Blocks[0].Text)
}

func TestPresenter_IsDeterministic(t *testing.T) {
	p := runtime.NewPresenter(threeSteps(t))
	state := domain.NewSessionState("a")
	assert.Equal(t, p.Current(state), p.Current(state))
}

func TestDiscussion(t *testing.T) {
	step, _ := threeSteps(t).Step(1)
	msg := runtime.DiscussionOpened(step)
	assert.Contains(t, msg.Text, "Step 2 Rejected")

	var ids []string
	for _, b := range msg.Blocks {
		for _, a := range b.Actions {
			ids = append(ids, a.ID)
		}
	}
	assert.Equal(t, []string{"branch:revise", "branch:alternative", "branch:skip", "feedback"}, ids)

	// every offered id must parse into a decision
	for _, id := range ids {
		_, err := domain.ParseDecision(id, "")
		assert.NoError(t, err, id)
	}

	ack, ok := runtime.Acknowledgement(domain.Branch(domain.IntentRevise))
	assert.True(t, ok)
	assert.Contains(t, ack.Text, "Approach revised")

	_, ok = runtime.Acknowledgement(domain.Reject())
	assert.False(t, ok)
}
