// Package config loads the Stepwise runtime configuration.
//
// Values are layered with viper: defaults, then an optional YAML file, then
// STEPWISE_* environment variables, then command-line flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. STEPWISE_REVEAL_CHUNK_SIZE for reveal.chunk_size.
const EnvPrefix = "STEPWISE"

// Config is the full runtime configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Reveal   RevealConfig   `mapstructure:"reveal"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Render   RenderConfig   `mapstructure:"render"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig selects the step catalog. An empty path uses the embedded
// default; a directory is read as Markdown step documents; a file as YAML.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type RevealConfig struct {
	ChunkSize  int           `mapstructure:"chunk_size"`
	FrameDelay time.Duration `mapstructure:"frame_delay"`
}

type WorkflowConfig struct {
	AutoAdvanceDelay time.Duration `mapstructure:"auto_advance_delay"`
}

type RenderConfig struct {
	Retries      int           `mapstructure:"retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig enables the shared store and locker when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig holds the local session directory used when Redis is not
// configured and the persistence policies applied to every store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
	// EncryptionKey is a base64 AES-256 key. When set, operator feedback is
	// encrypted at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
	// MaskPII replaces e-mail addresses and phone numbers in persisted feedback.
	MaskPII bool `mapstructure:"mask_pii"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Reveal:   RevealConfig{ChunkSize: 5, FrameDelay: 40 * time.Millisecond},
		Workflow: WorkflowConfig{AutoAdvanceDelay: 2 * time.Second},
		Render:   RenderConfig{Retries: 2, RetryBackoff: 50 * time.Millisecond},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Redis:    RedisConfig{Prefix: "stepwise:session:", TTL: 24 * time.Hour},
		Store:    StoreConfig{Path: ".stepwise/sessions"},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("reveal.chunk_size", d.Reveal.ChunkSize)
	v.SetDefault("reveal.frame_delay", d.Reveal.FrameDelay)
	v.SetDefault("workflow.auto_advance_delay", d.Workflow.AutoAdvanceDelay)
	v.SetDefault("render.retries", d.Render.Retries)
	v.SetDefault("render.retry_backoff", d.Render.RetryBackoff)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)
	v.SetDefault("store.mask_pii", d.Store.MaskPII)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// New returns a viper instance with defaults and environment overrides wired.
// When file is not empty it is read as the config file; otherwise
// ./stepwise.yaml is used if present.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("stepwise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Reveal.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("reveal.chunk_size must be at least 1, got %d", c.Reveal.ChunkSize))
	}
	if c.Reveal.FrameDelay < 0 {
		errs = append(errs, fmt.Errorf("reveal.frame_delay must not be negative, got %s", c.Reveal.FrameDelay))
	}
	if c.Workflow.AutoAdvanceDelay < 0 {
		errs = append(errs, fmt.Errorf("workflow.auto_advance_delay must not be negative, got %s", c.Workflow.AutoAdvanceDelay))
	}
	if c.Render.Retries < 0 {
		errs = append(errs, fmt.Errorf("render.retries must not be negative, got %d", c.Render.Retries))
	}
	if c.Render.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("render.retry_backoff must not be negative, got %s", c.Render.RetryBackoff))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl must not be negative, got %s", c.Redis.TTL))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
