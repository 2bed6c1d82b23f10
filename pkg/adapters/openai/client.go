// Package openai provides Understander and Composer implementations
// backed by the OpenAI Chat Completions API. All transport failures are
// wrapped with domain.ErrTransient so the engine can fall back to its
// deterministic heuristics instead of failing the session.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// completer captures the subset of the SDK used by the adapter, so
// tests can substitute a fake.
type completer interface {
	New(ctx context.Context, params sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Client implements ports.Understander and ports.Composer.
type Client struct {
	chat  completer
	model string
}

// Option configures the Client.
type Option func(*Client)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a client from an API key.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	sdkClient := sdk.NewClient(option.WithAPIKey(apiKey))
	return newFromCompleter(&sdkClient.Chat.Completions, opts...), nil
}

func newFromCompleter(chat completer, opts ...Option) *Client {
	c := &Client{chat: chat, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const extractSystemPrompt = `You extract a single piece of information from a user message.
Respond with ONLY a JSON object: {"value": "<extracted value>", "found": true|false}.
If the message does not contain the requested information, set "found" to false and "value" to "".
Do not add any other text.`

// extractPayload is the expected model output for Extract.
type extractPayload struct {
	Value string `mapstructure:"value"`
	Found bool   `mapstructure:"found"`
}

// Extract asks the model to pull the named field out of a raw answer.
func (c *Client) Extract(ctx context.Context, field domain.Field, raw string) (string, error) {
	user := fmt.Sprintf("Field to extract: %s\nUser message: %s", field.Name, raw)
	out, err := c.complete(ctx, extractSystemPrompt, user)
	if err != nil {
		return "", err
	}

	var payload extractPayload
	if err := decodeJSON(out, &payload); err != nil {
		return "", domain.Transient(fmt.Errorf("malformed extraction response: %w", err))
	}
	if !payload.Found || strings.TrimSpace(payload.Value) == "" {
		return "", fmt.Errorf("no %s found in message", field.Name)
	}
	return strings.TrimSpace(payload.Value), nil
}

const classifySystemPrompt = `You classify a reply to a "please confirm your details" prompt.
Respond with ONLY a JSON object: {"intent": "confirm"|"edit"|"reject", "field": "", "value": ""}.
Use "edit" when the user asks to change a specific detail, and fill "field" with the
detail name and "value" with the requested new value. Do not add any other text.`

type classifyPayload struct {
	Intent string `mapstructure:"intent"`
	Field  string `mapstructure:"field"`
	Value  string `mapstructure:"value"`
}

// ClassifyConfirmation interprets the user's confirmation reply.
func (c *Client) ClassifyConfirmation(ctx context.Context, raw string) (ports.Confirmation, error) {
	out, err := c.complete(ctx, classifySystemPrompt, raw)
	if err != nil {
		return ports.Confirmation{}, err
	}

	var payload classifyPayload
	if err := decodeJSON(out, &payload); err != nil {
		return ports.Confirmation{}, domain.Transient(fmt.Errorf("malformed classification response: %w", err))
	}
	switch payload.Intent {
	case "confirm":
		return ports.Confirmation{Kind: ports.ConfirmYes}, nil
	case "edit":
		if payload.Field == "" {
			return ports.Confirmation{}, errors.New("edit intent without a field")
		}
		return ports.Confirmation{
			Kind:  ports.ConfirmEdit,
			Field: strings.ToLower(strings.TrimSpace(payload.Field)),
			Value: strings.TrimSpace(payload.Value),
		}, nil
	default:
		return ports.Confirmation{Kind: ports.ConfirmReject}, nil
	}
}

const composeSystemPrompt = `You write a short, warm profile summary for a person who just
completed an intake conversation. Write 2-4 sentences in plain prose, addressing the
person by name when known. Mention every detail you are given. No markdown headers.`

// minSummaryLength guards against truncated or degenerate completions.
const minSummaryLength = 50

// Compose produces the profile summary text.
func (c *Client) Compose(ctx context.Context, profile map[string]string) (string, error) {
	names := make([]string, 0, len(profile))
	for name := range profile {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Profile details:\n")
	for _, name := range names {
		value := profile[name]
		if value == domain.SkippedValue {
			value = "(not provided)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, value)
	}

	out, err := c.complete(ctx, composeSystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	if len(out) < minSummaryLength {
		return "", domain.Transient(fmt.Errorf("summary too short (%d chars)", len(out)))
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.chat.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(c.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(system),
			sdk.UserMessage(user),
		},
	})
	if err != nil {
		return "", domain.Transient(fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", domain.Transient(errors.New("chat completion returned no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// decodeJSON parses a model reply as a JSON object, tolerating the
// code fences some models wrap their output in.
func decodeJSON(out string, target any) error {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return err
	}
	return mapstructure.Decode(raw, target)
}

var (
	_ ports.Understander = (*Client)(nil)
	_ ports.Composer     = (*Client)(nil)
)
