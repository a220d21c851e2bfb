package runtime_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeSteps: step 0 auto, step 1 gated, step 2 auto.
func threeSteps(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.NewCatalog(domain.CatalogInfo{Title: "Demo"},
		domain.Step{Index: 0, Kind: domain.KindThought, Summary: "Look at the data", Detail: "Columns and rows"},
		domain.Step{Index: 1, Kind: domain.KindPlaybook, Summary: "Design a geo test", RequiresApproval: true, ApprovalPrompt: "Run it?"},
		domain.Step{Index: 2, Kind: domain.KindAction, Summary: "Launch"},
	)
	require.NoError(t, err)
	return cat
}

func TestController_Start(t *testing.T) {
	c := runtime.NewController(threeSteps(t))

	out := c.Start("a", nil)
	require.NotNil(t, out.Step)
	assert.Equal(t, 0, out.Step.Index)
	assert.Equal(t, runtime.DirectiveRevealStep, out.Directive)
	assert.True(t, out.State.Active)
	assert.Equal(t, 0, out.State.CurrentIndex)
	assert.Empty(t, out.State.CompletedIndices)
	assert.False(t, out.State.ResultsShown)

	t.Run("Restart Overwrites Prior Run", func(t *testing.T) {
		prior := out.State.Clone()
		prior.CurrentIndex = 3
		prior.CompletedIndices = []int{0, 1, 2}
		prior.ResultsShown = true
		prior.Feedback = []string{"old"}
		prior.Generation = 9

		again := c.Start("a", prior)
		assert.Equal(t, 0, again.State.CurrentIndex)
		assert.Empty(t, again.State.CompletedIndices)
		assert.False(t, again.State.ResultsShown)
		assert.Empty(t, again.State.Feedback)
		assert.Equal(t, uint64(10), again.State.Generation, "generation keeps increasing across runs")
	})
}

func TestController_ThreeStepScenario(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	n := c.Catalog().Len()

	out := c.Start("a", nil)
	assert.Equal(t, domain.PhaseStep, out.State.Phase(n))

	// auto-advance from step 0
	out, err := c.Decide(out.State, domain.Decision{Kind: domain.DecisionApprove, Automatic: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Step.Index)

	out, err = c.Decide(out.State, domain.Reject())
	require.NoError(t, err)
	assert.Equal(t, runtime.DirectiveOpenDiscussion, out.Directive)
	assert.Equal(t, domain.PhasePaused, out.State.Phase(n))
	assert.Equal(t, 1, out.State.CurrentIndex)

	out, err = c.Decide(out.State, domain.Branch(domain.IntentSkip))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Step.Index)
	assert.Equal(t, domain.PhaseStep, out.State.Phase(n))

	out, err = c.Decide(out.State, domain.Decision{Kind: domain.DecisionApprove, Automatic: true})
	require.NoError(t, err)
	assert.True(t, out.Terminal())
	assert.Nil(t, out.Step)
	assert.Equal(t, domain.PhaseTerminal, out.State.Phase(n))
	assert.Equal(t, []int{0, 1, 2}, out.State.CompletedIndices)
	assert.True(t, out.State.ResultsShown)
}

func TestController_InvalidStates(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	started := c.Start("a", nil).State

	finished := started.Clone()
	finished.CurrentIndex = 3
	finished.CompletedIndices = []int{0, 1, 2}

	paused := started.Clone()
	paused.Paused = true

	tests := []struct {
		name     string
		state    *domain.SessionState
		decision domain.Decision
	}{
		{"Nil Session", nil, domain.Approve()},
		{"Inactive Session", &domain.SessionState{SessionID: "a"}, domain.Approve()},
		{"Terminal Approve", finished, domain.Approve()},
		{"Terminal Branch", finished, domain.Branch(domain.IntentRevise)},
		{"Reject While Paused", paused, domain.Reject()},
		{"Approve While Paused", paused, domain.Approve()},
		{"Skip While Paused", paused, domain.Skip()},
		{"Feedback While Not Paused", started, domain.Feedback("hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decide(tt.state, tt.decision)
			assert.ErrorIs(t, err, domain.ErrInvalidState)
			var ise *domain.InvalidStateError
			assert.ErrorAs(t, err, &ise)
		})
	}

	t.Run("Unknown Intent", func(t *testing.T) {
		_, err := c.Decide(started, domain.Branch("sideways"))
		assert.ErrorIs(t, err, domain.ErrInvalidDecision)
	})
}

func TestController_AdvancingDecisionsAreIdentical(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	base := c.Start("a", nil).State

	branches := []domain.Decision{
		domain.Branch(domain.IntentRevise),
		domain.Branch(domain.IntentAlternative),
		domain.Branch(domain.IntentSkip),
	}

	tests := []struct {
		name      string
		paused    bool
		decisions []domain.Decision
	}{
		{"From Step", false, append([]domain.Decision{domain.Approve(), domain.Skip()}, branches...)},
		{"From Paused", true, branches},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := base.Clone()
			start.Paused = tt.paused
			for _, d := range tt.decisions {
				out, err := c.Decide(start, d)
				require.NoError(t, err, d.String())
				assert.Equal(t, 1, out.State.CurrentIndex, d.String())
				assert.Equal(t, []int{0}, out.State.CompletedIndices, d.String())
				assert.False(t, out.State.Paused, d.String())
				assert.Equal(t, start.Generation+1, out.State.Generation, d.String())
			}
		})
	}
}

func TestController_RejectAndFeedback(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	n := c.Catalog().Len()
	out := c.Start("a", nil)

	out, err := c.Decide(out.State, domain.Reject())
	require.NoError(t, err)
	before := out.State

	t.Run("Request Feedback Stays Paused", func(t *testing.T) {
		req, err := c.Decide(before, domain.Feedback(""))
		require.NoError(t, err)
		assert.Equal(t, runtime.DirectiveRequestFeedback, req.Directive)
		assert.Equal(t, domain.PhasePaused, req.State.Phase(n))
		assert.Equal(t, before.CurrentIndex, req.State.CurrentIndex)
		assert.Empty(t, req.State.Feedback)
	})

	t.Run("Record Feedback Stays Paused", func(t *testing.T) {
		rec, err := c.Decide(before, domain.Feedback("  use regions  "))
		require.NoError(t, err)
		assert.Equal(t, runtime.DirectiveRecordFeedback, rec.Directive)
		assert.Equal(t, domain.PhasePaused, rec.State.Phase(n))
		assert.Equal(t, []string{"use regions"}, rec.State.Feedback)
		assert.Empty(t, rec.State.CompletedIndices)

		// exactly one branch resolution is needed afterwards
		adv, err := c.Decide(rec.State, domain.Branch(domain.IntentRevise))
		require.NoError(t, err)
		assert.Equal(t, 1, adv.State.CurrentIndex)
	})

	t.Run("Inputs Are Not Mutated", func(t *testing.T) {
		assert.True(t, before.Paused)
		assert.Empty(t, before.CompletedIndices)
	})
}

func TestController_ThreadIsCarriedToResolution(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	out := c.Start("a", nil)
	out, err := c.Decide(out.State, domain.Reject())
	require.NoError(t, err)

	paused := out.State.Clone()
	paused.ThreadID = "T1"

	adv, err := c.Decide(paused, domain.Branch(domain.IntentAlternative))
	require.NoError(t, err)
	assert.Equal(t, "T1", adv.ThreadID)
	assert.Empty(t, adv.State.ThreadID)
}

// Random walks must keep completedIndices strictly increasing with len == currentIndex.
func TestController_InvariantsHoldForRandomWalks(t *testing.T) {
	c := runtime.NewController(threeSteps(t))
	n := c.Catalog().Len()
	rng := rand.New(rand.NewSource(42))

	all := []domain.Decision{
		domain.Approve(), domain.Reject(), domain.Skip(),
		domain.Branch(domain.IntentRevise), domain.Branch(domain.IntentAlternative),
		domain.Branch(domain.IntentSkip), domain.Feedback(""), domain.Feedback("x"),
	}

	for walk := 0; walk < 200; walk++ {
		state := c.Start("w", nil).State
		for i := 0; i < 20 && !state.Phase(n).IsTerminal(); i++ {
			d := all[rng.Intn(len(all))]
			out, err := c.Decide(state, d)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidState)
				continue
			}
			if d.Kind == domain.DecisionReject || d.Kind == domain.DecisionFeedback {
				assert.Equal(t, state.CurrentIndex, out.State.CurrentIndex)
			}
			state = out.State

			require.Len(t, state.CompletedIndices, state.CurrentIndex)
			for j := 1; j < len(state.CompletedIndices); j++ {
				require.Less(t, state.CompletedIndices[j-1], state.CompletedIndices[j])
			}
		}
	}
}
