package runner

import "context"

// CommandSource is the strategy the Runner reads operator input from.
// This allows switching between Text (CLI) and JSON (structured) modes.
type CommandSource interface {
	// Next blocks until a command is available. It returns io.EOF when the
	// input is exhausted and ctx.Err() when ctx is done.
	Next(ctx context.Context) (Command, error)
}
