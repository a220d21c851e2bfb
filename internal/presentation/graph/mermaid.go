package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

const (
	startID   = "start"
	resultsID = "results"
	// summaryWidth bounds the summary excerpt shown on each node.
	summaryWidth = 40
)

// Overlay marks the progress of one session on the graph.
type Overlay struct {
	Completed []int
	// Current is the step index being shown; len(catalog) means the results.
	Current int
	Paused  bool
	Active  bool
}

// OverlayFor builds the overlay for a session state. A nil state yields nil.
func OverlayFor(state *domain.SessionState) *Overlay {
	if state == nil {
		return nil
	}
	return &Overlay{
		Completed: state.CompletedIndices,
		Current:   state.CurrentIndex,
		Paused:    state.Paused,
		Active:    state.Active,
	}
}

// GenerateMermaid produces a Mermaid flowchart of the workflow.
// It applies semantic styling:
// - Start and results: ((Circle))
// - Step that needs approval: {Rhombus}
// - Rejection discussion: [/Parallelogram/]
// - Other steps: [Rectangle]
// It also applies overlay styles (completed/current) if provided.
func GenerateMermaid(cat *domain.Catalog, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", startID, escape(cat.Info().Title))

	steps := cat.Steps()
	prev := startID
	prevArrow := "-->"
	for _, step := range steps {
		id := stepID(step.Index)
		label := fmt.Sprintf("%s %s %d<br/>%s", step.Kind.Icon(), step.Kind.Label(), step.Number(), escape(excerpt(step.Summary)))

		if step.RequiresApproval {
			fmt.Fprintf(&sb, "    %s{\"%s\"}\n", id, label)
		} else {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", prev, prevArrow, id)

		prev = id
		if step.RequiresApproval {
			discuss := discussID(step.Index)
			fmt.Fprintf(&sb, "    %s[/\"💬 Discussion\"/]\n", discuss)
			fmt.Fprintf(&sb, "    %s -. \"reject\" .-> %s\n", id, discuss)
			fmt.Fprintf(&sb, "    %s -. \"feedback\" .-> %s\n", discuss, discuss)
			prevArrow = `-- "approve / skip" -->`
			// The three branch resolutions join the happy path at the next node.
			next := resultsID
			if step.Index+1 < len(steps) {
				next = stepID(step.Index + 1)
			}
			fmt.Fprintf(&sb, "    %s -- \"revise / alternative / skip\" --> %s\n", discuss, next)
		} else {
			prevArrow = `-- "⏱️ auto" -->`
		}
	}
	fmt.Fprintf(&sb, "    %s((\"🎉 Results\"))\n", resultsID)
	fmt.Fprintf(&sb, "    %s %s %s\n", prev, prevArrow, resultsID)

	if overlay != nil && overlay.Active {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		fmt.Fprintf(&sb, "    class %s visited;\n", startID)
		for _, idx := range overlay.Completed {
			if idx >= 0 && idx < len(steps) {
				fmt.Fprintf(&sb, "    class %s visited;\n", stepID(idx))
			}
		}

		switch {
		case overlay.Current >= len(steps):
			fmt.Fprintf(&sb, "    class %s current;\n", resultsID)
		case overlay.Paused:
			fmt.Fprintf(&sb, "    class %s visited;\n", stepID(overlay.Current))
			fmt.Fprintf(&sb, "    class %s current;\n", discussID(overlay.Current))
		default:
			fmt.Fprintf(&sb, "    class %s current;\n", stepID(overlay.Current))
		}
	}

	return sb.String()
}

func stepID(i int) string {
	return fmt.Sprintf("step_%d", i+1)
}

func discussID(i int) string {
	return fmt.Sprintf("discuss_%d", i+1)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= summaryWidth {
		return s
	}
	return strings.TrimSpace(string(r[:summaryWidth])) + "…"
}

// escape keeps labels inside their double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
