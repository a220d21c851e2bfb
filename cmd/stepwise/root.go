package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to configuration keys. A flag only
// overrides the configuration when it is set on the command line.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"catalog":      "catalog.path",
	"store-dir":    "store.path",
	"mask-pii":     "store.mask_pii",
	"redis-addr":   "redis.addr",
	"redis-prefix": "redis.prefix",
	"addr":         "http.addr",
	"chunk-size":   "reveal.chunk_size",
	"frame-delay":  "reveal.frame_delay",
	"auto-advance": "workflow.auto_advance_delay",
	"metrics":      "metrics.enabled",
}

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Stepwise walks operators through approval-gated workflows",
	Long: `Stepwise presents a fixed catalog of steps one at a time, reveals each step
progressively and waits for an operator to approve, reject, skip or branch
before moving on.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		if cfgFile == "" {
			cfgFile = os.Getenv(config.EnvPrefix + "_CONFIG")
		}

		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return err
		}

		cfg, err = config.Load(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger = logging.NewWithFormat(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
		return nil
	},
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./stepwise.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML file or directory of step documents (default: embedded catalog)")
	rootCmd.PersistentFlags().String("store-dir", ".stepwise/sessions", "Directory for session files when Redis is not configured")
	rootCmd.PersistentFlags().Bool("mask-pii", false, "Mask e-mail addresses and phone numbers in stored feedback")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the shared session store and lock")
	rootCmd.PersistentFlags().String("redis-prefix", "stepwise:session:", "Key prefix for Redis sessions")
}
