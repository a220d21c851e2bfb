package terminal

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Markdown flattens a view into Markdown. Affordances become a list of the
// commands the operator can type.
func Markdown(view domain.ViewModel) string {
	var b strings.Builder
	for _, block := range view.Blocks {
		switch block.Type {
		case domain.BlockHeader:
			fmt.Fprintf(&b, "# %s\n\n", block.Text)
		case domain.BlockSection:
			fmt.Fprintf(&b, "%s\n\n", block.Text)
		case domain.BlockDivider:
			b.WriteString("---\n\n")
		case domain.BlockContext:
			fmt.Fprintf(&b, "_%s_\n\n", block.Text)
		case domain.BlockActions:
			for _, a := range block.Actions {
				fmt.Fprintf(&b, "- `%s` %s\n", a.ID, a.Label)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// MessageMarkdown renders a posted message, preferring its blocks over the fallback text.
func MessageMarkdown(msg domain.Message) string {
	if len(msg.Blocks) == 0 {
		return msg.Text + "\n"
	}
	return Markdown(domain.ViewModel{Blocks: msg.Blocks})
}
