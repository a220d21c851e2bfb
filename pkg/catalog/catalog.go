package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/stepwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed incrementality.yaml
var defaultCatalog []byte

// document is the YAML layout of a catalog file.
type document struct {
	domain.CatalogInfo `yaml:",inline"`
	Steps              []stepDocument `yaml:"steps"`
}

// stepDocument leaves index optional: steps without one take their list position.
type stepDocument struct {
	Index            *int            `yaml:"index,omitempty"`
	Kind             domain.StepKind `yaml:"kind"`
	Summary          string          `yaml:"summary"`
	Detail           string          `yaml:"detail,omitempty"`
	RequiresApproval bool            `yaml:"requires_approval,omitempty"`
	ApprovalPrompt   string          `yaml:"approval_prompt,omitempty"`
}

// Parse decodes a YAML catalog and validates it.
// Unknown fields are rejected so typos don't silently drop content.
func Parse(data []byte) (*domain.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	steps := make([]domain.Step, 0, len(doc.Steps))
	for i, s := range doc.Steps {
		idx := i
		if s.Index != nil {
			idx = *s.Index
		}
		steps = append(steps, domain.Step{
			Index:            idx,
			Kind:             s.Kind,
			Summary:          s.Summary,
			Detail:           s.Detail,
			RequiresApproval: s.RequiresApproval,
			ApprovalPrompt:   s.ApprovalPrompt,
		})
	}
	return domain.NewCatalog(doc.CatalogInfo, steps...)
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded ad incrementality walkthrough.
func Default() (*domain.Catalog, error) {
	return Parse(defaultCatalog)
}

// Encode writes the catalog back as YAML with explicit indices.
func Encode(w io.Writer, c *domain.Catalog) error {
	doc := document{CatalogInfo: c.Info()}
	for _, s := range c.Steps() {
		idx := s.Index
		doc.Steps = append(doc.Steps, stepDocument{
			Index:            &idx,
			Kind:             s.Kind,
			Summary:          s.Summary,
			Detail:           s.Detail,
			RequiresApproval: s.RequiresApproval,
			ApprovalPrompt:   s.ApprovalPrompt,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

// FileLoader implements ports.CatalogLoader over a YAML file.
// An empty Path selects the embedded default catalog.
type FileLoader struct {
	Path string
}

// LoadCatalog reads the catalog.
func (l FileLoader) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	if l.Path == "" {
		return Default()
	}
	return LoadFile(l.Path)
}
