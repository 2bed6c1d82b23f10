package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake"
	"github.com/aretw0/intake/pkg/domain"
)

// scriptedWorkflow replays canned turn results and records the events
// it received, keyed nothing on actual engine logic.
type scriptedWorkflow struct {
	results   []*intake.TurnResult
	events    []domain.Event
	sessions  []string
	restarted []string
}

func (w *scriptedWorkflow) HandleTurn(_ context.Context, sessionID string, ev domain.Event) (*intake.TurnResult, error) {
	w.events = append(w.events, ev)
	w.sessions = append(w.sessions, sessionID)
	if len(w.results) == 0 {
		return terminalResult("done"), nil
	}
	next := w.results[0]
	w.results = w.results[1:]
	return next, nil
}

func (w *scriptedWorkflow) Restart(_ context.Context, sessionID string) error {
	w.restarted = append(w.restarted, sessionID)
	return nil
}

func suspendedResult(msg string) *intake.TurnResult {
	return &intake.TurnResult{
		Actions: []domain.ActionRequest{
			domain.Say(msg),
			domain.AwaitInput(domain.InputRequest{Kind: domain.InputAnswer, Field: "name"}),
		},
		Suspended: true,
	}
}

func terminalResult(msg string) *intake.TurnResult {
	return &intake.TurnResult{
		Actions:  []domain.ActionRequest{domain.Say(msg)},
		Terminal: true,
	}
}

func TestRun_DrivesToTerminal(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		suspendedResult("What is your name?"),
		terminalResult("**Profile saved successfully!**"),
	}}

	var out strings.Builder
	r := NewRunner()
	r.Input = strings.NewReader("Ada Lovelace\n")
	r.Output = &out

	id, err := r.Run(context.Background(), workflow, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", id)

	require.Len(t, workflow.events, 2)
	assert.Equal(t, domain.EventStart, workflow.events[0].Type)
	assert.Equal(t, domain.EventMessage, workflow.events[1].Type)
	assert.Equal(t, "Ada Lovelace", workflow.events[1].Text)

	assert.Contains(t, out.String(), "What is your name?")
	assert.Contains(t, out.String(), "Profile saved successfully!")
}

func TestRun_ExitCommandStopsLoop(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		suspendedResult("What is your name?"),
	}}

	r := NewRunner()
	r.Input = strings.NewReader("exit\n")
	r.Output = &strings.Builder{}

	_, err := r.Run(context.Background(), workflow, "s1")
	require.NoError(t, err)
	// Only the start event reached the workflow.
	require.Len(t, workflow.events, 1)
}

func TestRun_RestartCommand(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		suspendedResult("What is your name?"),
		suspendedResult("What is your name?"),
	}}

	r := NewRunner()
	r.Input = strings.NewReader("/restart\nexit\n")
	r.Output = &strings.Builder{}

	_, err := r.Run(context.Background(), workflow, "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"s1"}, workflow.restarted)
	require.Len(t, workflow.events, 2)
	assert.Equal(t, domain.EventStart, workflow.events[1].Type)
}

func TestRun_NewCommandMintsFreshSession(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		suspendedResult("What is your name?"),
		suspendedResult("What is your name?"),
	}}

	r := NewRunner()
	r.Input = strings.NewReader("/new\nexit\n")
	r.Output = &strings.Builder{}

	id, err := r.Run(context.Background(), workflow, "s1")
	require.NoError(t, err)

	require.Len(t, workflow.sessions, 2)
	assert.Equal(t, "s1", workflow.sessions[0])
	assert.NotEqual(t, "s1", workflow.sessions[1])
	assert.Equal(t, workflow.sessions[1], id)
}

func TestRun_EOFEndsCleanly(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		suspendedResult("What is your name?"),
	}}

	r := NewRunner()
	r.Input = strings.NewReader("")
	r.Output = &strings.Builder{}

	_, err := r.Run(context.Background(), workflow, "s1")
	assert.NoError(t, err)
}

func TestRun_RendererApplied(t *testing.T) {
	workflow := &scriptedWorkflow{results: []*intake.TurnResult{
		terminalResult("**bold**"),
	}}

	var out strings.Builder
	r := NewRunner()
	r.Input = strings.NewReader("")
	r.Output = &out
	r.Renderer = func(s string) (string, error) {
		return strings.ReplaceAll(s, "**", ""), nil
	}

	_, err := r.Run(context.Background(), workflow, "s1")
	require.NoError(t, err)
	assert.Equal(t, "bold\n", out.String())
}
