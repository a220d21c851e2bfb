package main

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/adapters/redis"
	"github.com/aretw0/stepwise/pkg/catalog"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger = logging.NewNop()
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory fallback", func(t *testing.T) {
		b, err := openStore(ctx, config.Default(), storeMemory)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, b.Store)
		assert.Nil(t, b.Locker)
		assert.NoError(t, b.Close())
	})

	t.Run("file fallback", func(t *testing.T) {
		c := config.Default()
		c.Store.Path = t.TempDir()
		b, err := openStore(ctx, c, storeFile)
		require.NoError(t, err)
		assert.IsType(t, &file.Store{}, b.Store, "no policies leaves the store unwrapped")
	})

	t.Run("redis when configured", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c := config.Default()
		c.Redis.Addr = mr.Addr()

		b, err := openStore(ctx, c, storeFile)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &redis.Store{}, b.Store)
		assert.NotNil(t, b.Locker)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		c := config.Default()
		c.Redis.Addr = addr
		_, err := openStore(ctx, c, storeFile)
		assert.Error(t, err)
	})
}

func TestOpenStore_Policies(t *testing.T) {
	ctx := context.Background()
	c := config.Default()
	c.Store.Path = t.TempDir()
	c.Store.MaskPII = true
	c.Store.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))

	b, err := openStore(ctx, c, storeFile)
	require.NoError(t, err)

	state := domain.NewSessionState("s1")
	state.Feedback = []string{"mail ops@example.com"}
	require.NoError(t, b.Store.Save(ctx, "s1", state))

	raw, err := file.New(c.Store.Path).Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Feedback[0], "mail")

	loaded, err := b.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mail ***"}, loaded.Feedback)

	c.Store.EncryptionKey = "not-a-key"
	_, err = openStore(ctx, c, storeFile)
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	ctx := context.Background()

	embedded, err := loadCatalog(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10, embedded.Len())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, catalog.Encode(f, embedded))
	require.NoError(t, f.Close())

	fromFile, err := loadCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, embedded.Info().Title, fromFile.Info().Title)
	assert.Equal(t, embedded.Len(), fromFile.Len())

	_, err = loadCatalog(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewEngine_UsesConfig(t *testing.T) {
	c := config.Default()
	b := backend{Store: memory.NewStore()}

	engine, err := newEngine(context.Background(), c, memory.NewSurface(), b)
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, 10, engine.Catalog().Len())
	assert.Same(t, b.Store, engine.Store())

	c.Reveal.ChunkSize = 0
	_, err = newEngine(context.Background(), c, memory.NewSurface(), b)
	assert.Error(t, err)
}
