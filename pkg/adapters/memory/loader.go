package memory

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Loader implements ports.CatalogLoader from steps held in memory.
type Loader struct {
	info  domain.CatalogInfo
	steps []domain.Step
}

// NewLoader creates a Loader over the given steps.
// Validation is deferred to LoadCatalog so tests can exercise invalid catalogs.
func NewLoader(info domain.CatalogInfo, steps ...domain.Step) *Loader {
	return &Loader{
		info:  info,
		steps: append([]domain.Step(nil), steps...),
	}
}

// LoadCatalog builds the catalog.
func (l *Loader) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	return domain.NewCatalog(l.info, l.steps...)
}
