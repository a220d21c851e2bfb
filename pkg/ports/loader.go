package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// CatalogLoader defines how the engine obtains its step catalog.
// This allows the storage layer (embedded YAML, Loam directory, memory) to be decoupled.
type CatalogLoader interface {
	// LoadCatalog builds and validates the catalog.
	LoadCatalog(ctx context.Context) (*domain.Catalog, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload of catalogs during authoring.
type Watchable interface {
	// Watch returns a channel that is signaled with the id of the changed document.
	Watch(ctx context.Context) (<-chan string, error)
}
