package dsl

import (
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Builder manages the catalog construction. Steps are numbered in the order
// they are added.
type Builder struct {
	info  domain.CatalogInfo
	steps []*StepBuilder
}

// New creates a new catalog builder with the given title.
func New(title string) *Builder {
	return &Builder{info: domain.CatalogInfo{Title: title}}
}

// Intro sets the welcome text.
func (b *Builder) Intro(text string) *Builder {
	b.info.Intro = text
	return b
}

// Results sets the summary shown when the workflow completes.
func (b *Builder) Results(markdown string) *Builder {
	b.info.Results = markdown
	return b
}

// ResultsDetail sets the expanded results view. Sections are separated by "\n---\n".
func (b *Builder) ResultsDetail(markdown string) *Builder {
	b.info.ResultsDetail = markdown
	return b
}

// Reports lists the generated report names shown with the results.
func (b *Builder) Reports(names ...string) *Builder {
	b.info.Reports = append(b.info.Reports, names...)
	return b
}

// Step appends a step of the given kind.
func (b *Builder) Step(kind domain.StepKind, summary string) *StepBuilder {
	sb := &StepBuilder{
		step: domain.Step{
			Index:   len(b.steps),
			Kind:    kind,
			Summary: summary,
		},
		builder: b,
	}
	b.steps = append(b.steps, sb)
	return sb
}

func (b *Builder) Thought(summary string) *StepBuilder {
	return b.Step(domain.KindThought, summary)
}

func (b *Builder) Research(summary string) *StepBuilder {
	return b.Step(domain.KindResearch, summary)
}

func (b *Builder) DomainKnowledge(summary string) *StepBuilder {
	return b.Step(domain.KindDomainKnowledge, summary)
}

func (b *Builder) Playbook(summary string) *StepBuilder {
	return b.Step(domain.KindPlaybook, summary)
}

func (b *Builder) Action(summary string) *StepBuilder {
	return b.Step(domain.KindAction, summary)
}

// Catalog validates and returns the catalog.
func (b *Builder) Catalog() (*domain.Catalog, error) {
	return domain.NewCatalog(b.info, b.collect()...)
}

// Build compiles the catalog into a MemoryLoader. Validation happens when the
// loader is read, so an engine built from it fails at construction.
func (b *Builder) Build() *memory.Loader {
	return memory.NewLoader(b.info, b.collect()...)
}

func (b *Builder) collect() []domain.Step {
	steps := make([]domain.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		steps = append(steps, sb.step)
	}
	return steps
}
