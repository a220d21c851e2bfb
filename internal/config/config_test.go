package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.Reveal.ChunkSize)
	assert.Equal(t, 40*time.Millisecond, cfg.Reveal.FrameDelay)
	assert.Equal(t, 2*time.Second, cfg.Workflow.AutoAdvanceDelay)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
reveal:
  chunk_size: 3
  frame_delay: 10ms
redis:
  addr: localhost:6379
  ttl: 1h
`), 0o644))

	t.Setenv("STEPWISE_REVEAL_CHUNK_SIZE", "8")
	t.Setenv("STEPWISE_WORKFLOW_AUTO_ADVANCE_DELAY", "500ms")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Reveal.ChunkSize, "environment wins over the file")
	assert.Equal(t, 10*time.Millisecond, cfg.Reveal.FrameDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Workflow.AutoAdvanceDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "stepwise:session:", cfg.Redis.Prefix)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero chunk", func(c *Config) { c.Reveal.ChunkSize = 0 }, "reveal.chunk_size"},
		{"negative frame delay", func(c *Config) { c.Reveal.FrameDelay = -time.Millisecond }, "reveal.frame_delay"},
		{"negative auto advance", func(c *Config) { c.Workflow.AutoAdvanceDelay = -time.Second }, "workflow.auto_advance_delay"},
		{"negative retries", func(c *Config) { c.Render.Retries = -1 }, "render.retries"},
		{"negative backoff", func(c *Config) { c.Render.RetryBackoff = -1 }, "render.retry_backoff"},
		{"negative ttl", func(c *Config) { c.Redis.TTL = -1 }, "redis.ttl"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
