package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/intake/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between plain text and richer frontends.
type IOHandler interface {
	// Output presents the actions to the user. Returns true if the
	// workflow suspended and a reply should be read next.
	Output(ctx context.Context, actions []domain.ActionRequest) (bool, error)

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)
}

// ContentRenderer transforms content before outputting it. This allows
// TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(_ context.Context, actions []domain.ActionRequest) (bool, error) {
	needsInput := false
	for _, act := range actions {
		switch act.Type {
		case domain.ActionSay:
			if msg, ok := act.Payload.(string); ok {
				output := msg
				if h.Renderer != nil {
					if rendered, err := h.Renderer(msg); err == nil {
						output = rendered
					}
				}
				fmt.Fprintln(h.Writer, strings.TrimSpace(output))
			}
		case domain.ActionWarn:
			if msg, ok := act.Payload.(string); ok {
				fmt.Fprintf(h.Writer, "Warning: %s\n", strings.TrimSpace(msg))
			}
		case domain.ActionAwaitInput:
			needsInput = true
		}
	}
	return needsInput, nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		fmt.Fprint(h.Writer, "> ")

		text, err := h.Reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && text != "" {
				// Last line without a trailing newline still counts.
			} else {
				return "", err
			}
		}
		text = strings.TrimSpace(text)

		// Sanitize Input (Limit + Control Chars)
		clean, err := SanitizeInput(text)
		if err != nil {
			// User Feedback: Prompt retry
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

var _ IOHandler = (*TextHandler)(nil)
