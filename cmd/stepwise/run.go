package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/terminal"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk through the workflow in the terminal",
	Long: `Starts an interactive session on this terminal. Type "help" for the list of
commands. Sessions are kept in --store-dir (or Redis) so a run can be resumed
later with --session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sessionID, _ := cmd.Flags().GetString("session")
		channelID, _ := cmd.Flags().GetString("channel")
		jsonMode, _ := cmd.Flags().GetBool("json")
		autoStart, _ := cmd.Flags().GetBool("start")

		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		b, err := openStore(ctx, cfg, storeFile)
		if err != nil {
			return err
		}
		defer b.Close()

		var (
			surface  ports.Surface
			source   runner.CommandSource
			notifier runner.Notifier
		)
		if jsonMode {
			h := runner.NewJSONHandler(os.Stdin, os.Stdout)
			h.Logger = logger
			surface, source, notifier = h, h, h
		} else {
			term := terminal.New(os.Stdout)
			if terminal.IsTerminal(os.Stdout) {
				terminal.PrintBanner(os.Stdout, strings.TrimSpace(stepwise.Version))
			}
			text := runner.NewTextHandler(os.Stdin, os.Stdout)
			if terminal.IsTerminal(os.Stdout) {
				text.Prompt = "> "
			}
			surface, source, notifier = term, text, term
		}

		engine, err := newEngine(ctx, cfg, surface, b,
			stepwise.WithLifecycleHooks(observability.LoggingHooks(logger)),
		)
		if err != nil {
			return err
		}
		defer engine.Close()

		logger.Debug("starting interactive session", "session_id", sessionID)
		r := runner.NewRunner(engine, sessionID,
			runner.WithSource(source),
			runner.WithNotifier(notifier),
			runner.WithLogger(logger),
			runner.WithChannel(channelID),
			runner.WithAutoStart(autoStart),
		)
		if err := r.Run(ctx); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		// Let an in-flight reveal finish writing before the process exits.
		engine.Wait()
		if !jsonMode {
			fmt.Fprintf(os.Stderr, "Session saved as %s\n", sessionID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("session", "", "Session id to create or resume (default: a new random id)")
	runCmd.Flags().String("channel", "", "Channel id for rejection threads (default: the session id)")
	runCmd.Flags().Bool("json", false, "Read JSON-Lines commands and write views as JSON-Lines")
	runCmd.Flags().Bool("start", false, "Start a run immediately instead of showing the welcome view")
	runCmd.Flags().Int("chunk-size", 5, "Words revealed per frame")
	runCmd.Flags().Duration("frame-delay", 40*time.Millisecond, "Delay between reveal frames")
	runCmd.Flags().Duration("auto-advance", 2*time.Second, "Delay before steps without approval advance")
}
