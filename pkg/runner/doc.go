/*
Package runner implements the interactive operator loop for the Stepwise engine.

It acts as the bridge between a human (or a script) typing commands and the
engine triggers. Views and thread messages are not written by the runner: they
reach the operator through whatever ports.Surface the engine was built with,
typically the terminal surface or the JSONHandler.

# Key Components

  - Runner: reads commands and dispatches them to OnOpen, OnStart, OnDecision,
    OnViewResults and Rerender.
  - TextHandler: line commands ("approve", "reject", "feedback use weekly data").
  - JSONHandler: JSON-Lines commands in, views and messages out.
  - SanitizeInput: the input policy shared with the HTTP and MCP transports.

# Usage

	surface := terminal.New(os.Stdout)
	engine, _ := stepwise.New(stepwise.WithSurface(surface))
	defer engine.Close()

	r := runner.NewRunner(engine, "operator-1",
		runner.WithSource(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithNotifier(surface),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
