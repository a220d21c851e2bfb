package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepwise/pkg/domain"
)

// IndexID is the document holding the catalog copy. Its body is the results text.
const IndexID = "index"

// Loader adapts a Loam repository of Markdown documents to ports.CatalogLoader.
// Every document except the index is a step; steps are ordered by document id,
// so authors number their files (01-baseline.md, 02-data.md, ...).
type Loader struct {
	Repo *loam.TypedRepository[StepMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[StepMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it in a Loader.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog dir: %w", err)
	}

	// The engine never writes catalogs, so ReadOnly keeps Loam out of its sandbox mode.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[StepMetadata](repo)), nil
}

type stepDoc struct {
	id      string
	meta    StepMetadata
	summary string
}

// LoadCatalog implements ports.CatalogLoader.
func (l *Loader) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	var info domain.CatalogInfo
	seen := make(map[string]string)
	stepDocs := make([]stepDoc, 0, len(docs))

	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: collision detected: ID '%s' is defined in both '%s' and '%s'",
				domain.ErrInvalidCatalog, id, existing, doc.ID)
		}
		seen[id] = doc.ID

		if id == IndexID {
			info = domain.CatalogInfo{
				Title:         doc.Data.Title,
				Intro:         strings.TrimSpace(doc.Data.Intro),
				Results:       strings.TrimSpace(doc.Content),
				ResultsDetail: strings.TrimSpace(doc.Data.ResultsDetail),
				Reports:       doc.Data.Reports,
			}
			continue
		}

		stepDocs = append(stepDocs, stepDoc{id: id, meta: doc.Data, summary: doc.Content})
	}

	sort.Slice(stepDocs, func(i, j int) bool { return stepDocs[i].id < stepDocs[j].id })

	steps := make([]domain.Step, 0, len(stepDocs))
	for i, d := range stepDocs {
		steps = append(steps, domain.Step{
			Index:            i,
			Kind:             domain.StepKind(d.meta.Kind),
			Summary:          strings.TrimSpace(d.summary),
			Detail:           strings.TrimSpace(d.meta.Detail),
			RequiresApproval: d.meta.RequiresApproval,
			ApprovalPrompt:   strings.TrimSpace(d.meta.ApprovalPrompt),
		})
	}

	cat, err := domain.NewCatalog(info, steps...)
	if err != nil {
		if len(stepDocs) > 0 {
			return nil, fmt.Errorf("loading catalog from loam (first step %q): %w", stepDocs[0].id, err)
		}
		return nil, err
	}
	return cat, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
