package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Trigger names the operator action a command maps to.
type Trigger string

const (
	TriggerNone    Trigger = ""
	TriggerOpen    Trigger = "open"
	TriggerStart   Trigger = "start"
	TriggerDecide  Trigger = "decide"
	TriggerResults Trigger = "results"
	TriggerRender  Trigger = "render"
	TriggerHelp    Trigger = "help"
	TriggerQuit    Trigger = "quit"
)

// ErrUnknownCommand is returned for input that maps to no trigger.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed operator input.
type Command struct {
	Trigger  Trigger         `json:"trigger"`
	Decision domain.Decision `json:"decision,omitempty"`
}

var aliases = map[string]Command{
	"open":         {Trigger: TriggerOpen},
	"start":        {Trigger: TriggerStart},
	"s":            {Trigger: TriggerStart},
	"approve":      {Trigger: TriggerDecide, Decision: domain.Approve()},
	"a":            {Trigger: TriggerDecide, Decision: domain.Approve()},
	"y":            {Trigger: TriggerDecide, Decision: domain.Approve()},
	"reject":       {Trigger: TriggerDecide, Decision: domain.Reject()},
	"r":            {Trigger: TriggerDecide, Decision: domain.Reject()},
	"n":            {Trigger: TriggerDecide, Decision: domain.Reject()},
	"skip":         {Trigger: TriggerDecide, Decision: domain.Skip()},
	"revise":       {Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentRevise)},
	"alternative":  {Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentAlternative)},
	"alt":          {Trigger: TriggerDecide, Decision: domain.Branch(domain.IntentAlternative)},
	"results":      {Trigger: TriggerResults},
	"view_results": {Trigger: TriggerResults},
	"render":       {Trigger: TriggerRender},
	"help":         {Trigger: TriggerHelp},
	"?":            {Trigger: TriggerHelp},
	"quit":         {Trigger: TriggerQuit},
	"exit":         {Trigger: TriggerQuit},
	"q":            {Trigger: TriggerQuit},
}

// ParseCommand maps a line of operator input to a Command.
// "feedback <text>" (or "f <text>") carries free text; every decision kind
// accepted by domain.ParseDecision is also understood verbatim.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Trigger: TriggerNone}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	word = strings.ToLower(word)
	rest = strings.TrimSpace(rest)

	if word == "feedback" || word == "f" {
		return Command{Trigger: TriggerDecide, Decision: domain.Feedback(rest)}, nil
	}
	if cmd, ok := aliases[word]; ok {
		return cmd, nil
	}
	if d, err := domain.ParseDecision(word, rest); err == nil {
		return Command{Trigger: TriggerDecide, Decision: d}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
}

// HelpText lists the commands understood by ParseCommand.
const HelpText = `Commands:
  start                 begin a new run
  approve | a           approve the current step
  reject | r            reject the current step and open a discussion
  skip                  skip the current step
  revise | alternative  resolve a rejection and continue
  branch:skip           resolve a rejection by skipping the step
  feedback <text>       leave feedback on a rejected step
  results               show the detailed results
  render                show the current view again
  quit                  leave`
