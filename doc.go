/*
Package intake is a deterministic workflow engine for conversational
data collection: ask for a fixed set of profile fields one at a time,
validate and confirm the answers, then generate and persist a derived
summary with retry and fallback.

It implements a "Reentrant Router with Controlled Side-Effects"
architecture: a pure routing table decides which step runs next from
the persisted session snapshot and the latest input event, and the
steps own all mutation. The conversation suspends cooperatively at the
two waiting-for-input steps, so a session can stop at any prompt and
resume later from its persisted state, possibly on another replica.

# Key Properties

  - Deterministic execution: given the same session and event, routing
    is always reproducible.
  - Hexagonal Architecture: the core is decoupled from its adapters
    (session stores, the language-understanding and composition
    services, the durable record store, CLI and HTTP hosts).
  - Durable sessions: every step persists before control returns to
    the boundary; per-session locks keep concurrent turns serialized.
  - Bounded failure: per-field attempt limits, bounded generation
    retries, and an I/O-free template fallback keep the workflow from
    crashing on collaborator failures.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/intake"
		"github.com/aretw0/intake/pkg/adapters/heuristic"
		"github.com/aretw0/intake/pkg/adapters/memory"
		"github.com/aretw0/intake/pkg/domain"
	)

	func main() {
		wf, err := intake.New(
			domain.DefaultSchema(),
			heuristic.New(),
			heuristic.New(),
			memory.NewStore(),
		)
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		result, err := wf.HandleTurn(ctx, "session-123", domain.StartEvent())
		if err != nil {
			log.Fatal(err)
		}

		// Render result.Actions, read the user's reply, and feed it
		// back with domain.MessageEvent until result.Terminal.
		_ = result
	}
*/
package intake
