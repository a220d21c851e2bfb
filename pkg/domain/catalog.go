package domain

import (
	"fmt"
	"sort"
)

// CatalogInfo holds the static copy that surrounds the steps of a catalog.
type CatalogInfo struct {
	Title         string   `json:"title" yaml:"title"`
	Intro         string   `json:"intro,omitempty" yaml:"intro,omitempty"`
	Results       string   `json:"results,omitempty" yaml:"results,omitempty"`
	ResultsDetail string   `json:"results_detail,omitempty" yaml:"results_detail,omitempty"`
	Reports       []string `json:"reports,omitempty" yaml:"reports,omitempty"`
}

// Catalog is an ordered, immutable sequence of steps.
// Indices are guaranteed to be 0..N-1 with no gaps and N > 0.
type Catalog struct {
	info  CatalogInfo
	steps []Step
}

// NewCatalog validates and freezes a set of steps.
// Steps may be supplied in any order; they are sorted by index before checking contiguity.
func NewCatalog(info CatalogInfo, steps ...Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: catalog has no steps", ErrInvalidCatalog)
	}

	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i, s := range sorted {
		if s.Index != i {
			return nil, fmt.Errorf("%w: expected step index %d, found %d", ErrInvalidCatalog, i, s.Index)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	if info.Title == "" {
		info.Title = "Guided Workflow"
	}
	info.Reports = append([]string(nil), info.Reports...)

	return &Catalog{info: info, steps: sorted}, nil
}

// Len returns the number of steps (N).
func (c *Catalog) Len() int {
	return len(c.steps)
}

// Step returns the step at index i.
func (c *Catalog) Step(i int) (Step, bool) {
	if i < 0 || i >= len(c.steps) {
		return Step{}, false
	}
	return c.steps[i], true
}

// Steps returns a copy of all steps in order.
func (c *Catalog) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Info returns the catalog copy.
func (c *Catalog) Info() CatalogInfo {
	info := c.info
	info.Reports = append([]string(nil), c.info.Reports...)
	return info
}
