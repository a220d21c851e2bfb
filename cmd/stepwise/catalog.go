package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/pkg/catalog"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect step catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a catalog for errors",
	Long:  `Loads a YAML catalog or a directory of step documents and reports the first problem found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := catalogLoader(catalogPath(args))
		if err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return validate(cmd.Context(), loader)
		}

		watchable, ok := loader.(ports.Watchable)
		if !ok {
			return fmt.Errorf("--watch needs a catalog directory")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := watchable.Watch(ctx)
		if err != nil {
			return err
		}

		if err := validate(ctx, loader); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		for id := range events {
			logger.Debug("catalog changed", "doc", id)
			if err := validate(ctx, loader); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		return nil
	},
}

func validate(ctx context.Context, loader ports.CatalogLoader) error {
	cat, err := loader.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	gated := 0
	for _, step := range cat.Steps() {
		if step.RequiresApproval {
			gated++
		}
	}
	fmt.Printf("Catalog %q is valid! ✅ (%d steps, %d need approval)\n", cat.Info().Title, cat.Len(), gated)
	return nil
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print a catalog as YAML",
	Long:  `Prints the resolved catalog in the YAML catalog format. Without a path the embedded catalog is printed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context(), catalogPath(args))
		if err != nil {
			return err
		}
		return catalog.Encode(os.Stdout, cat)
	},
}

func catalogPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Catalog.Path
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogValidateCmd.Flags().Bool("watch", false, "Re-validate a catalog directory whenever it changes")
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogGraphCmd)
	catalogGraphCmd.Flags().String("session", "", "Highlight the progress of this session")
}

var catalogGraphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Print the workflow as a Mermaid flowchart",
	Long: `Prints the catalog as a Mermaid flowchart. With --session the progress of that
session is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context(), catalogPath(args))
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			b, err := openStore(cmd.Context(), cfg, storeFile)
			if err != nil {
				return err
			}
			defer b.Close()

			state, err := b.Store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session %q: %w", sessionID, err)
			}
			overlay = graph.OverlayFor(state)
		}

		fmt.Print(graph.GenerateMermaid(cat, overlay))
		return nil
	},
}
