package runtime

import (
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Resolution ids offered in the rejection thread. The first three resolve to a
// branch decision; custom feedback keeps the session paused.
const (
	ResolveRevise      = "branch:revise"
	ResolveAlternative = "branch:alternative"
	ResolveSkip        = "branch:skip"
	ResolveFeedback    = "feedback"
)

// DiscussionOpened is the first message of the rejection thread.
func DiscussionOpened(step domain.Step) domain.Message {
	body := fmt.Sprintf("*❌ Step %d Rejected*\n\n*%s*\n\n%s", step.Number(), step.Title(), step.Summary)
	if step.Detail != "" {
		body += "\n\n_" + step.Detail + "_"
	}
	return domain.Message{
		Text: fmt.Sprintf("🤔 Step %d Rejected - Let's discuss alternatives", step.Number()),
		Blocks: []domain.Block{
			{Type: domain.BlockSection, Text: body},
			{Type: domain.BlockDivider},
			{Type: domain.BlockSection, Text: "*🤔 What would you like me to do instead?*"},
			{Type: domain.BlockActions, Actions: []domain.Action{
				{ID: ResolveRevise, Label: "🔄 Revise Approach", Style: domain.StylePrimary},
				{ID: ResolveAlternative, Label: "📊 Different Analysis"},
				{ID: ResolveSkip, Label: "⏭️ Skip This Step"},
				{ID: ResolveFeedback, Label: "💬 Custom Feedback"},
			}},
		},
	}
}

// Acknowledgement is posted into the thread once the decision was applied.
// ok is false for decisions that need no thread reply.
func Acknowledgement(d domain.Decision) (domain.Message, bool) {
	var text string
	switch {
	case d.Kind == domain.DecisionBranch && d.Intent == domain.IntentRevise:
		text = "✅ Approach revised and proceeding to next step!"
	case d.Kind == domain.DecisionBranch && d.Intent == domain.IntentAlternative:
		text = "📊 Switching to different analysis approach and proceeding to next step!"
	case d.Kind == domain.DecisionBranch && d.Intent == domain.IntentSkip,
		d.Kind == domain.DecisionSkip:
		text = "⏭️ Step skipped and proceeding to next step!"
	case d.Kind == domain.DecisionApprove:
		text = "✅ Step approved and proceeding to next step!"
	case d.Kind == domain.DecisionFeedback && d.Text == "":
		text = "💬 Please provide your custom feedback in this thread. I'll incorporate your suggestions and proceed to the next step."
	case d.Kind == domain.DecisionFeedback:
		text = "📝 Thanks! Your feedback was recorded. Choose how to proceed when you're ready."
	default:
		return domain.Message{}, false
	}
	return domain.Message{
		Text:   text,
		Blocks: []domain.Block{{Type: domain.BlockSection, Text: text}},
	}, true
}
