package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/intake/pkg/domain"
)

// stepGenerate drives the generation coordinator: validate the profile,
// invoke the composer with bounded retries, and degrade to the
// deterministic template when the service is exhausted. It never
// interacts with the user; messaging happens in finalize.
func (e *Engine) stepGenerate(ctx context.Context, sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	// Fail fast on an incomplete profile. This is a data-integrity
	// fault, not a retryable condition.
	var missing []string
	for _, f := range e.schema.Fields() {
		if f.Required && !e.schema.Satisfied(sess.Profile, f.Name) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		err := &domain.IntegrityError{Missing: missing}
		sess.Generation.Status = domain.GenerationFailed
		sess.Generation.LastError = err.Error()
		e.failSession(sess, err.Error())
		return []domain.ActionRequest{domain.Warn(err.Error())}, OutcomeTerminal, nil
	}

	sess.Generation.Status = domain.GenerationInProgress

	var lastErr error
	for sess.Generation.Attempts < e.genAttempts {
		sess.Generation.Attempts++
		e.metrics.GenerationAttempts.Inc()

		text, err := e.compose(ctx, sess.Profile)
		if err == nil {
			sess.Generation.Status = domain.GenerationCompleted
			sess.Generation.Text = text
			sess.Generation.LastError = ""
			return nil, OutcomeContinue, nil
		}

		lastErr = err
		e.logger.Warn("composition attempt failed",
			"session_id", sess.ID, "attempt", sess.Generation.Attempts, "err", err)

		if sess.Generation.Attempts < e.genAttempts && e.retryDelay > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	// Retries exhausted: compose from the profile alone. This path
	// performs no I/O and always succeeds on a complete profile.
	e.metrics.GenerationFallbacks.Inc()
	e.logger.Warn("composer exhausted, using template fallback", "session_id", sess.ID, "err", lastErr)

	text := domain.TemplateSummary(sess.Profile)
	if strings.TrimSpace(text) == "" {
		// Internal fault in the fallback composer itself.
		sess.Generation.Status = domain.GenerationFailed
		e.failSession(sess, "fallback summary composition produced no text")
		return nil, OutcomeTerminal, nil
	}

	sess.Generation.Status = domain.GenerationFallback
	sess.Generation.Text = text
	if lastErr != nil {
		sess.Generation.LastError = lastErr.Error()
	}
	return nil, OutcomeContinue, nil
}

func (e *Engine) compose(ctx context.Context, profile map[string]string) (string, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	text, err := e.composer.Compose(callCtx, profile)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("composer returned empty text")
	}
	return text, nil
}

// stepFinalize publishes the summary: persist the durable record,
// emit the closing message, and move the session to completed.
func (e *Engine) stepFinalize(ctx context.Context, sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	if sess.Generation.Status == domain.GenerationFailed {
		e.failSession(sess, "summary generation failed")
		return []domain.ActionRequest{domain.Warn(sess.Generation.LastError)}, OutcomeTerminal, nil
	}

	var actions []domain.ActionRequest

	if e.recorder != nil {
		callCtx, cancel := e.callContext(ctx)
		recordID, err := e.recorder.SaveRecord(callCtx, sess.Profile, sess.Generation.Text)
		cancel()
		if err != nil {
			// Downstream persistence does not revert a completed
			// workflow: report and move on.
			serr := &domain.StoreError{Err: err}
			e.metrics.RecordSaveFailures.Inc()
			e.logger.Warn("record store failed", "session_id", sess.ID, "err", err)
			actions = append(actions, domain.Warn(serr.Error()))
		} else {
			sess.RecordID = recordID
			e.logger.Info("record saved", "session_id", sess.ID, "record_id", recordID)
		}
	}

	sess.Status = domain.StatusCompleted
	e.metrics.SessionsCompleted.Inc()

	msg := "**Profile saved successfully!**\n\n" + sess.Generation.Text + "\n\nThank you for providing your information!"
	sess.Append(domain.RoleAssistant, msg)
	actions = append(actions, domain.Say(msg))
	return actions, OutcomeTerminal, nil
}

// stepTerminal answers events that arrive after the workflow ended.
func (e *Engine) stepTerminal(sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	var msg string
	switch sess.Status {
	case domain.StatusFailed:
		msg = "This conversation ended with an error: " + sess.FailReason +
			". Start a new session to try again."
	default:
		msg = "This conversation is already complete. Start a new session to submit another profile."
	}
	return []domain.ActionRequest{domain.Say(msg)}, OutcomeTerminal, nil
}
