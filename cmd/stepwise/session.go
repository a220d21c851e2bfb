package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions kept in --store-dir or in Redis when --redis-addr is set.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openStore(cmd.Context(), cfg, storeFile)
		if err != nil {
			return err
		}
		defer b.Close()

		cat, err := loadCatalog(cmd.Context(), cfg.Catalog.Path)
		if err != nil {
			return err
		}

		sessions, err := b.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Println("Sessions:")
		for _, id := range sessions {
			state, err := b.Store.Load(cmd.Context(), id)
			if err != nil {
				fmt.Printf("- %s (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("- %s  %s, %d/%d completed\n", id, state.Phase(cat.Len()), len(state.CompletedIndices), cat.Len())
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		b, err := openStore(cmd.Context(), cfg, storeFile)
		if err != nil {
			return err
		}
		defer b.Close()

		state, err := b.Store.Load(cmd.Context(), sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session %q not found", sessionID)
			}
			return fmt.Errorf("error loading session %q: %w", sessionID, err)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openStore(cmd.Context(), cfg, storeFile)
		if err != nil {
			return err
		}
		defer b.Close()

		var errs []error
		for _, sessionID := range args {
			if err := b.Store.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing %q: %w", sessionID, err))
				continue
			}
			fmt.Printf("Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
