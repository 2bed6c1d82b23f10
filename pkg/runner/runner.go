// Package runner drives the intake workflow from an interactive
// frontend. It owns the read-print loop, session commands and input
// hygiene, keeping the core free of terminal concerns.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/intake"
	"github.com/aretw0/intake/pkg/domain"
)

// Workflow is the surface of the intake core the runner needs.
type Workflow interface {
	HandleTurn(ctx context.Context, sessionID string, ev domain.Event) (*intake.TurnResult, error)
	Restart(ctx context.Context, sessionID string) error
}

// Runner handles the interactive execution loop using provided IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	// Handler is the strategy for IO. If nil, standard text IO is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Input/Output back the default TextHandler when Handler is nil.
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner() *Runner {
	return &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run drives one conversation to a terminal state. If sessionID is
// empty a fresh one is minted. Returns the identifier of the session
// that was last active, so callers can resume it.
func (r *Runner) Run(ctx context.Context, workflow Workflow, sessionID string) (string, error) {
	handler := r.resolveHandler()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := workflow.HandleTurn(ctx, sessionID, domain.StartEvent())
	if err != nil {
		return sessionID, fmt.Errorf("failed to start session: %w", err)
	}

	for {
		needsInput, err := handler.Output(ctx, result.Actions)
		if err != nil {
			return sessionID, fmt.Errorf("output error: %w", err)
		}
		if result.Terminal {
			return sessionID, nil
		}
		if !needsInput {
			// A suspended turn without an input request means the
			// boundary contract was broken; bail out rather than spin.
			return sessionID, fmt.Errorf("session %s suspended without requesting input", sessionID)
		}

		text, err := handler.Input(ctx)
		if err != nil {
			if err == io.EOF {
				return sessionID, nil
			}
			return sessionID, err
		}

		ev, newID, stop, err := r.interpret(ctx, workflow, sessionID, text)
		if err != nil {
			return sessionID, err
		}
		if stop {
			return sessionID, nil
		}
		sessionID = newID

		result, err = workflow.HandleTurn(ctx, sessionID, ev)
		if err != nil {
			return sessionID, fmt.Errorf("turn error: %w", err)
		}
	}
}

// interpret maps a raw input line to the next event, handling the
// session commands the conversation supports.
func (r *Runner) interpret(ctx context.Context, workflow Workflow, sessionID, text string) (ev domain.Event, newID string, stop bool, err error) {
	switch strings.ToLower(text) {
	case "exit", "quit", "/exit":
		return domain.Event{}, sessionID, true, nil

	case "/restart":
		r.Logger.Debug("restarting session", "session_id", sessionID)
		if err := workflow.Restart(ctx, sessionID); err != nil {
			return domain.Event{}, sessionID, false, fmt.Errorf("restart failed: %w", err)
		}
		return domain.StartEvent(), sessionID, false, nil

	case "/new":
		newID = uuid.NewString()
		r.Logger.Debug("switching to new session", "session_id", newID)
		return domain.StartEvent(), newID, false, nil

	default:
		return domain.MessageEvent(text), sessionID, false, nil
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output)
	th.Renderer = r.Renderer
	// Memoize so subsequent Run() calls reuse the same reader.
	r.Handler = th
	return th
}
