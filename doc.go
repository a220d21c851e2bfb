/*
Package stepwise drives scripted, multi-step approval workflows presented on a chat-like surface.

A workflow is a fixed catalog of narrated steps. Each step is revealed incrementally
(a typewriter effect) and either advances on its own after a short pause or waits for
the operator to approve it. Rejecting a step pauses the session and opens a discussion
thread offering how to resume: revise, switch to a different analysis, skip, or leave
custom feedback.

# Concept

The Engine receives the surface triggers (open, start, decision, view results),
applies transitions through a pure controller under a per-session lock and renders
the resulting views through a ports.Surface. Every session is keyed by its id and every
transition bumps the session generation, so timed work (reveal frames, auto-advance)
scheduled for an older generation is discarded instead of racing the operator.

Rendering is decoupled from state: a transition is committed before its view is
delivered, and Rerender repairs a view without re-running the transition.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/stepwise"
		"github.com/aretw0/stepwise/pkg/domain"
	)

	func main() {
		eng, err := stepwise.New() // embedded default catalog, in-memory store
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		ctx := context.Background()
		if _, err := eng.OnStart(ctx, "U123"); err != nil {
			log.Fatal(err)
		}

		// Later, when the operator clicks a button:
		d, _ := domain.ParseDecision("approve", "")
		if _, err := eng.OnDecision(ctx, "U123", d); err != nil {
			log.Println(domain.ApologyMessage)
		}
	}
*/
package stepwise
