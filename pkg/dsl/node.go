package dsl

import "github.com/aretw0/stepwise/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Detail sets the subordinate note shown under the summary.
func (s *StepBuilder) Detail(text string) *StepBuilder {
	s.step.Detail = text
	return s
}

// Gate makes the step wait for an operator decision after its reveal.
func (s *StepBuilder) Gate(prompt string) *StepBuilder {
	s.step.RequiresApproval = true
	s.step.ApprovalPrompt = prompt
	return s
}

// Then returns to the catalog builder to add the next step.
func (s *StepBuilder) Then() *Builder {
	return s.builder
}
