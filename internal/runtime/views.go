package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Affordance labels. The ids are the decision kinds the surface sends back.
var (
	approveAction = domain.Action{ID: string(domain.DecisionApprove), Label: "✅ Approve & Continue", Style: domain.StylePrimary}
	rejectAction  = domain.Action{ID: string(domain.DecisionReject), Label: "❌ Reject & Revise", Style: domain.StyleDanger}
	startAction   = domain.Action{ID: domain.ActionStart, Label: "🚀 Start Analysis", Style: domain.StylePrimary}
	restartAction = domain.Action{ID: domain.ActionStart, Label: "🔄 Run New Analysis"}
	resultsAction = domain.Action{ID: domain.ActionViewResults, Label: "📊 View Detailed Results", Style: domain.StylePrimary}
)

// Presenter builds view models for a catalog. It holds no session data.
type Presenter struct {
	catalog *domain.Catalog
}

// NewPresenter creates a presenter for the catalog.
func NewPresenter(catalog *domain.Catalog) *Presenter {
	return &Presenter{catalog: catalog}
}

// Welcome is shown before any run is started.
func (p *Presenter) Welcome() domain.ViewModel {
	info := p.catalog.Info()
	intro := info.Intro
	if intro == "" {
		intro = fmt.Sprintf("This workflow walks through %d steps. Some of them need your approval.", p.catalog.Len())
	}
	return domain.ViewModel{
		Title: info.Title,
		Blocks: []domain.Block{
			{Type: domain.BlockHeader, Text: info.Title},
			{Type: domain.BlockSection, Text: intro},
			{Type: domain.BlockActions, Actions: []domain.Action{startAction}},
		},
	}
}

// Step renders the current step with frame as its (possibly partial) text.
// Approval affordances are attached only once the final frame is shown.
func (p *Presenter) Step(state *domain.SessionState, frame domain.RevealFrame) domain.ViewModel {
	step, _ := p.catalog.Step(state.CurrentIndex)

	blocks := []domain.Block{{Type: domain.BlockHeader, Text: p.header(state)}}
	blocks = append(blocks, p.completed(state)...)
	blocks = append(blocks, domain.Block{
		Type: domain.BlockSection,
		Text: fmt.Sprintf("*Step %d:*\n%s\n\n%s", step.Number(), step.Title(), frame.Text),
	})

	if frame.IsFinal && step.RequiresApproval {
		blocks = append(blocks,
			domain.Block{Type: domain.BlockSection, Text: "*" + step.ApprovalPrompt + "*"},
			domain.Block{Type: domain.BlockActions, Actions: []domain.Action{approveAction, rejectAction}},
		)
	}

	blocks = append(blocks, p.progress(state))
	return domain.ViewModel{Title: p.catalog.Info().Title, Blocks: blocks}
}

// Paused is shown while the current step is under discussion.
func (p *Presenter) Paused(state *domain.SessionState) domain.ViewModel {
	step, _ := p.catalog.Step(state.CurrentIndex)
	return domain.ViewModel{
		Title: p.catalog.Info().Title,
		Blocks: []domain.Block{
			{Type: domain.BlockHeader, Text: p.header(state)},
			{Type: domain.BlockSection, Text: "*❌ Step Rejected*\n\nI've opened a discussion thread for this step. Please check the channel to provide feedback and choose how to proceed."},
			{Type: domain.BlockDivider},
			{Type: domain.BlockSection, Text: fmt.Sprintf("*Step %d:*\n%s\n\n%s", step.Number(), step.Title(), FullText(step))},
			p.progress(state),
		},
	}
}

// Results is the terminal summary.
func (p *Presenter) Results(state *domain.SessionState) domain.ViewModel {
	info := p.catalog.Info()
	summary := fmt.Sprintf("*📊 Final Results*\n\n✅ All %d steps completed successfully!", p.catalog.Len())
	if info.Results != "" {
		summary += "\n\n" + info.Results
	}

	blocks := []domain.Block{
		{Type: domain.BlockHeader, Text: "🎉 Analysis Complete!"},
		{Type: domain.BlockSection, Text: summary},
	}
	if len(info.Reports) > 0 {
		blocks = append(blocks,
			domain.Block{Type: domain.BlockDivider},
			domain.Block{Type: domain.BlockSection, Text: "*📈 Generated Reports:*\n• " + strings.Join(info.Reports, "\n• ")},
		)
	}
	blocks = append(blocks,
		domain.Block{Type: domain.BlockActions, Actions: []domain.Action{resultsAction, restartAction}},
		p.progress(state),
	)
	return domain.ViewModel{Title: info.Title, Blocks: blocks}
}

// ResultsDetail is the expanded results view.
func (p *Presenter) ResultsDetail(state *domain.SessionState) domain.ViewModel {
	info := p.catalog.Info()
	blocks := []domain.Block{{Type: domain.BlockHeader, Text: "📊 Detailed Analysis Results"}}

	detail := info.ResultsDetail
	if detail == "" {
		detail = info.Results
	}
	for i, section := range strings.Split(detail, "\n---\n") {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if i > 0 {
			blocks = append(blocks, domain.Block{Type: domain.BlockDivider})
		}
		blocks = append(blocks, domain.Block{Type: domain.BlockSection, Text: strings.TrimSpace(section)})
	}

	blocks = append(blocks, domain.Block{Type: domain.BlockActions, Actions: []domain.Action{restartAction}})
	return domain.ViewModel{Title: info.Title, Blocks: blocks}
}

// Current renders the view that matches the session phase without animation.
// It is what Rerender and OnOpen show for an existing session.
func (p *Presenter) Current(state *domain.SessionState) domain.ViewModel {
	switch state.Phase(p.catalog.Len()) {
	case domain.PhaseIdle:
		return p.Welcome()
	case domain.PhaseTerminal:
		return p.Results(state)
	case domain.PhasePaused:
		return p.Paused(state)
	default:
		step, _ := p.catalog.Step(state.CurrentIndex)
		return p.Step(state, domain.RevealFrame{Text: FullText(step), IsFinal: true})
	}
}

func (p *Presenter) header(state *domain.SessionState) string {
	return fmt.Sprintf("%s - Step %d", p.catalog.Info().Title, state.CurrentIndex+1)
}

func (p *Presenter) completed(state *domain.SessionState) []domain.Block {
	if len(state.CompletedIndices) == 0 {
		return nil
	}

	lines := make([]string, 0, len(state.CompletedIndices))
	for _, idx := range state.CompletedIndices {
		step, ok := p.catalog.Step(idx)
		if !ok {
			continue
		}
		line := fmt.Sprintf("• Step %d: %s\n  %s", step.Number(), step.Title(), step.Summary)
		if step.Detail != "" {
			line += "\n  _" + step.Detail + "_"
		}
		lines = append(lines, line)
	}

	return []domain.Block{
		{Type: domain.BlockSection, Text: "*✅ Completed Steps:*\n" + strings.Join(lines, "\n")},
		{Type: domain.BlockDivider},
	}
}

func (p *Presenter) progress(state *domain.SessionState) domain.Block {
	return domain.Block{
		Type: domain.BlockContext,
		Text: fmt.Sprintf("Progress: %d/%d steps completed", len(state.CompletedIndices), p.catalog.Len()),
	}
}
