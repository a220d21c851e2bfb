package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/adapters/loam"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/adapters/redis"
	"github.com/aretw0/stepwise/pkg/catalog"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/aretw0/stepwise/pkg/ports"
)

// storeKind selects the session store built by openStore.
type storeKind int

const (
	storeMemory storeKind = iota
	storeFile
)

// backend is the session persistence chosen from the configuration.
type backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	close  func() error
}

func (b backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openStore returns the Redis store and locker when redis.addr is set.
// Otherwise it falls back to fallback. The store.* policies wrap the result.
func openStore(ctx context.Context, c *config.Config, fallback storeKind) (backend, error) {
	b, err := openBackend(ctx, c, fallback)
	if err != nil {
		return backend{}, err
	}

	var mws []middleware.Middleware
	if c.Store.MaskPII {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			_ = b.Close()
			return backend{}, err
		}
		mws = append(mws, pii)
	}
	if c.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(c.Store.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return backend{}, fmt.Errorf("store.encryption_key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = b.Close()
			return backend{}, err
		}
		mws = append(mws, enc)
	}
	b.Store = middleware.Wrap(b.Store, mws...)
	return b, nil
}

func openBackend(ctx context.Context, c *config.Config, fallback storeKind) (backend, error) {
	if c.Redis.Addr != "" {
		store := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB,
			redis.WithPrefix(c.Redis.Prefix),
			redis.WithTTL(c.Redis.TTL),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return backend{}, fmt.Errorf("failed to reach redis at %s: %w", c.Redis.Addr, err)
		}
		logger.Info("using redis session store", "addr", c.Redis.Addr, "prefix", c.Redis.Prefix)
		return backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), c.Redis.Prefix),
			close:  store.Close,
		}, nil
	}

	if fallback == storeFile {
		logger.Debug("using file session store", "path", c.Store.Path)
		return backend{Store: file.New(c.Store.Path)}, nil
	}
	return backend{Store: memory.NewStore()}, nil
}

// catalogLoader picks the loader for catalog.path: the embedded catalog when
// empty, Markdown step documents for a directory, YAML otherwise.
func catalogLoader(path string) (ports.CatalogLoader, error) {
	if path == "" {
		return catalog.FileLoader{}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if info.IsDir() {
		return loam.Open(path)
	}
	return catalog.FileLoader{Path: path}, nil
}

func loadCatalog(ctx context.Context, path string) (*domain.Catalog, error) {
	loader, err := catalogLoader(path)
	if err != nil {
		return nil, err
	}
	return loader.LoadCatalog(ctx)
}

// newEngine builds an engine from the configuration with the given surface and
// persistence. Extra options are applied last.
func newEngine(ctx context.Context, c *config.Config, surface ports.Surface, b backend, extra ...stepwise.Option) (*stepwise.Engine, error) {
	cat, err := loadCatalog(ctx, c.Catalog.Path)
	if err != nil {
		return nil, err
	}

	opts := []stepwise.Option{
		stepwise.WithCatalog(cat),
		stepwise.WithStore(b.Store),
		stepwise.WithSurface(surface),
		stepwise.WithLogger(logger),
		stepwise.WithChunkSize(c.Reveal.ChunkSize),
		stepwise.WithFrameDelay(c.Reveal.FrameDelay),
		stepwise.WithAutoAdvanceDelay(c.Workflow.AutoAdvanceDelay),
		stepwise.WithRenderRetries(c.Render.Retries, c.Render.RetryBackoff),
	}
	if b.Locker != nil {
		opts = append(opts, stepwise.WithLocker(b.Locker))
	}

	engine, err := stepwise.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
