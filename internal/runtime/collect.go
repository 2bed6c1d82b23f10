package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/intake/pkg/domain"
)

const welcomeMessage = "Hi! I'm here to help collect your information. Let's get started!"

// stepInit resets the session into a clean collecting state.
func (e *Engine) stepInit(sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	sess.Status = domain.StatusCollecting
	sess.Profile = make(map[string]string)
	sess.Attempts = make(map[string]int)
	sess.Errors = nil
	sess.Cursor = ""
	sess.Confirmed = false
	sess.ConfirmRetries = 0
	sess.Generation = domain.Generation{Status: domain.GenerationPending}
	sess.RecordID = ""
	sess.FailReason = ""

	sess.Append(domain.RoleAssistant, welcomeMessage)
	return []domain.ActionRequest{domain.Say(welcomeMessage)}, OutcomeContinue, nil
}

// stepAsk emits the question for the next unsatisfied field in schema
// declaration order and suspends awaiting the answer.
func (e *Engine) stepAsk(sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	field, ok := e.schema.NextMissing(sess.Profile)
	if !ok {
		// Nothing left to ask. Let the router take the confirm branch.
		return nil, OutcomeContinue, nil
	}

	question := field.Question
	if reason, has := sess.LastErrorFor(field.Name); has && sess.Attempts[field.Name] > 0 {
		question = question + "\n\nNote: " + reason
	}

	sess.Cursor = field.Name
	sess.Status = domain.StatusCollecting
	sess.Append(domain.RoleAssistant, question)

	actions := []domain.ActionRequest{
		domain.Say(question),
		domain.AwaitInput(domain.InputRequest{Kind: domain.InputAnswer, Field: field.Name}),
	}
	return actions, OutcomeSuspend, nil
}

// stepProcessAnswer validates the raw answer for the cursor field,
// storing the normalized value or recording the rejection.
func (e *Engine) stepProcessAnswer(ctx context.Context, sess *domain.Session, ev domain.Event) ([]domain.ActionRequest, Outcome, error) {
	text := strings.TrimSpace(ev.Text)
	sess.Append(domain.RoleUser, ev.Text)

	if sess.Cursor == "" {
		// Nothing was asked. Loop back so the router picks the next step.
		return nil, OutcomeContinue, nil
	}
	field, ok := e.schema.Lookup(sess.Cursor)
	if !ok {
		return nil, OutcomeTerminal, fmt.Errorf("cursor %q is not a schema field", sess.Cursor)
	}

	if !field.Required && strings.EqualFold(text, "skip") {
		sess.Profile[field.Name] = domain.SkippedValue
		sess.Cursor = ""
		return nil, OutcomeContinue, nil
	}

	candidate := e.extractValue(ctx, field, text)

	value, err := field.Validate(candidate)
	if err != nil {
		return e.rejectAnswer(sess, field, err)
	}

	sess.Profile[field.Name] = value
	sess.Cursor = ""
	return nil, OutcomeContinue, nil
}

// extractValue delegates to the language-understanding service. A
// transient failure falls back to the deterministic field heuristics;
// a "no value" outcome falls back to the raw text itself, because the
// user was asked for exactly this field.
func (e *Engine) extractValue(ctx context.Context, field domain.Field, text string) string {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	value, err := e.understander.Extract(callCtx, field, text)
	if err != nil {
		if errors.Is(err, domain.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
			e.logger.Warn("extraction service unavailable, using heuristics",
				"field", field.Name, "err", err)
			return domain.HeuristicExtract(field, text)
		}
		return text
	}
	if strings.TrimSpace(value) == "" {
		return text
	}
	return value
}

// rejectAnswer records a validation failure and either re-asks or, once
// the attempt bound is hit, fails the session (required field) or skips
// it (optional field).
func (e *Engine) rejectAnswer(sess *domain.Session, field domain.Field, err error) ([]domain.ActionRequest, Outcome, error) {
	reason := err.Error()
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		reason = verr.Reason
	}

	sess.RecordError(field.Name, reason)
	sess.Cursor = ""
	e.metrics.ValidationFailures.WithLabelValues(field.Name).Inc()
	e.logger.Debug("answer rejected",
		"session_id", sess.ID, "field", field.Name,
		"attempts", sess.Attempts[field.Name], "reason", reason)

	if sess.Attempts[field.Name] < e.maxAttempts {
		return nil, OutcomeContinue, nil
	}

	if !field.Required {
		sess.Profile[field.Name] = domain.SkippedValue
		msg := fmt.Sprintf("No problem, let's move on without your %s.", field.Name)
		sess.Append(domain.RoleAssistant, msg)
		return []domain.ActionRequest{domain.Say(msg)}, OutcomeContinue, nil
	}

	e.failSession(sess, fmt.Sprintf("could not collect a valid %s after %d attempts", field.Name, e.maxAttempts))
	msg := "I'm having trouble confirming one of the required details after multiple attempts. " +
		"Please start over when you're ready."
	sess.Append(domain.RoleAssistant, msg)
	return []domain.ActionRequest{domain.Say(msg)}, OutcomeTerminal, nil
}
