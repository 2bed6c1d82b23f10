package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

func confirmingSession() *domain.Session {
	sess := collectingSession(completeProfile())
	sess.Status = domain.StatusConfirming
	return sess
}

func TestStepConfirmShow_RendersProfile(t *testing.T) {
	e := passthroughEngine()
	sess := collectingSession(completeProfile())
	sess.Profile["city"] = domain.SkippedValue

	actions, outcome, err := e.ExecuteStep(context.Background(), domain.StepConfirmShow, sess, domain.ContinueEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuspend, outcome)
	assert.Equal(t, domain.StatusConfirming, sess.Status)
	assert.True(t, awaitsInput(actions))

	msg := sayPayload(actions)
	assert.Contains(t, msg, "Name: Ada Lovelace")
	assert.Contains(t, msg, "Email: ada@example.com")
	assert.Contains(t, msg, "City: (not provided)")
}

func TestStepConfirmParse_YesMovesToGenerating(t *testing.T) {
	u := &stubUnderstander{
		classify: func(string) (ports.Confirmation, error) {
			return ports.Confirmation{Kind: ports.ConfirmYes}, nil
		},
	}
	e := NewEngine(domain.DefaultSchema(), u, &stubComposer{})
	sess := confirmingSession()

	_, outcome, err := e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("yes"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome)
	assert.True(t, sess.Confirmed)
	assert.Equal(t, domain.StatusGenerating, sess.Status)
	assert.Equal(t, domain.GenerationPending, sess.Generation.Status)
}

func TestStepConfirmParse_ValidEdit(t *testing.T) {
	u := &stubUnderstander{
		classify: func(string) (ports.Confirmation, error) {
			return ports.Confirmation{Kind: ports.ConfirmEdit, Field: "email", Value: "new@example.com"}, nil
		},
	}
	e := NewEngine(domain.DefaultSchema(), u, &stubComposer{})
	sess := confirmingSession()

	_, outcome, err := e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("change my email to new@example.com"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome)
	assert.Equal(t, "new@example.com", sess.Profile["email"])
	assert.False(t, sess.Confirmed)
	// A successful edit never burns a collection attempt.
	assert.Zero(t, sess.Attempts["email"])
	// Still confirming: the router re-shows the updated profile.
	assert.Equal(t, domain.StatusConfirming, sess.Status)
}

func TestStepConfirmParse_InvalidEditValue(t *testing.T) {
	u := &stubUnderstander{
		classify: func(string) (ports.Confirmation, error) {
			return ports.Confirmation{Kind: ports.ConfirmEdit, Field: "email", Value: "not-an-email"}, nil
		},
	}
	e := NewEngine(domain.DefaultSchema(), u, &stubComposer{})
	sess := confirmingSession()

	actions, outcome, err := e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("change email to not-an-email"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome)
	assert.Equal(t, "ada@example.com", sess.Profile["email"], "previous value survives a bad edit")
	assert.Equal(t, 1, sess.Attempts["email"])
	assert.Contains(t, sayPayload(actions), "looks invalid")
}

func TestStepConfirmParse_UnknownEditField(t *testing.T) {
	u := &stubUnderstander{
		classify: func(string) (ports.Confirmation, error) {
			return ports.Confirmation{Kind: ports.ConfirmEdit, Field: "company", Value: "Initech"}, nil
		},
	}
	e := NewEngine(domain.DefaultSchema(), u, &stubComposer{})
	sess := confirmingSession()

	actions, outcome, err := e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("change company to Initech"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome)
	assert.Contains(t, sayPayload(actions), "company")
}

func TestStepConfirmParse_RejectionBoundFailsSession(t *testing.T) {
	e := NewEngine(domain.DefaultSchema(), &stubUnderstander{}, &stubComposer{}, WithMaxConfirmRetries(3))
	sess := confirmingSession()

	var outcome Outcome
	var err error
	for i := 0; i < 3; i++ {
		_, outcome, err = e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("mumble"))
		require.NoError(t, err)
	}

	assert.Equal(t, OutcomeTerminal, outcome)
	assert.Equal(t, domain.StatusFailed, sess.Status)
	assert.Equal(t, 3, sess.ConfirmRetries)
}

func TestStepConfirmParse_TransientFailureUsesHeuristics(t *testing.T) {
	u := &stubUnderstander{
		classify: func(string) (ports.Confirmation, error) {
			return ports.Confirmation{}, domain.Transient(errors.New("service down"))
		},
	}
	e := NewEngine(domain.DefaultSchema(), u, &stubComposer{})

	sess := confirmingSession()
	_, _, err := e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("yes"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusGenerating, sess.Status)

	sess = confirmingSession()
	_, _, err = e.ExecuteStep(context.Background(), domain.StepConfirmParse, sess, domain.MessageEvent("change my city to Paris"))
	require.NoError(t, err)
	assert.Equal(t, "Paris", sess.Profile["city"])
}
