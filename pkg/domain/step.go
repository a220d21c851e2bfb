package domain

import (
	"fmt"
	"strings"
)

// StepKind is the narrative category of a step. It only affects presentation.
type StepKind string

const (
	KindThought         StepKind = "thought"
	KindResearch        StepKind = "research"
	KindDomainKnowledge StepKind = "domain_knowledge"
	KindPlaybook        StepKind = "playbook"
	KindAction          StepKind = "action"
)

// IsValid reports whether k is one of the known kinds.
func (k StepKind) IsValid() bool {
	switch k {
	case KindThought, KindResearch, KindDomainKnowledge, KindPlaybook, KindAction:
		return true
	default:
		return false
	}
}

// Icon returns the emoji shown next to the step title.
func (k StepKind) Icon() string {
	switch k {
	case KindThought:
		return "💡"
	case KindResearch:
		return "🔍"
	case KindDomainKnowledge:
		return "🎯"
	case KindPlaybook:
		return "📚"
	case KindAction:
		return "✅"
	default:
		return "•"
	}
}

// Label returns the human readable title of the kind (e.g. "Domain Knowledge").
func (k StepKind) Label() string {
	switch k {
	case KindThought:
		return "Thought"
	case KindResearch:
		return "Research"
	case KindDomainKnowledge:
		return "Domain Knowledge"
	case KindPlaybook:
		return "Playbook"
	case KindAction:
		return "Action"
	default:
		return string(k)
	}
}

// Step is one narrated unit of work in a catalog.
// Steps are immutable once the catalog is built.
type Step struct {
	Index            int      `json:"index" yaml:"index" mapstructure:"index"`
	Kind             StepKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Summary          string   `json:"summary" yaml:"summary" mapstructure:"summary"`
	Detail           string   `json:"detail,omitempty" yaml:"detail,omitempty" mapstructure:"detail"`
	RequiresApproval bool     `json:"requires_approval" yaml:"requires_approval" mapstructure:"requires_approval"`
	ApprovalPrompt   string   `json:"approval_prompt,omitempty" yaml:"approval_prompt,omitempty" mapstructure:"approval_prompt"`
}

// Number is the 1-based position used in operator-facing text.
func (s Step) Number() int {
	return s.Index + 1
}

// Title combines the kind icon and label, e.g. "💡 Thought:".
func (s Step) Title() string {
	return fmt.Sprintf("%s %s:", s.Kind.Icon(), s.Kind.Label())
}

// Validate checks the per-step invariants. Index contiguity is checked by NewCatalog.
func (s Step) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: step %d has unknown kind %q", ErrInvalidCatalog, s.Index, s.Kind)
	}
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("%w: step %d has an empty summary", ErrInvalidCatalog, s.Index)
	}
	hasPrompt := strings.TrimSpace(s.ApprovalPrompt) != ""
	if s.RequiresApproval && !hasPrompt {
		return fmt.Errorf("%w: step %d requires approval but has no approval prompt", ErrInvalidCatalog, s.Index)
	}
	if !s.RequiresApproval && hasPrompt {
		return fmt.Errorf("%w: step %d has an approval prompt but does not require approval", ErrInvalidCatalog, s.Index)
	}
	return nil
}
