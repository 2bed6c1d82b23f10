package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// stepConfirmShow renders the collected profile and suspends awaiting
// a yes / edit / no reply.
func (e *Engine) stepConfirmShow(sess *domain.Session) ([]domain.ActionRequest, Outcome, error) {
	var b strings.Builder
	b.WriteString("Please confirm these details:\n")
	for _, f := range e.schema.Fields() {
		v := sess.Profile[f.Name]
		if v == "" || v == domain.SkippedValue {
			v = "(not provided)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", strings.ToUpper(f.Name[:1])+f.Name[1:], v)
	}
	b.WriteString("\nReply **yes** to confirm, or tell me what to change (e.g. \"change email to ...\").")

	msg := b.String()
	sess.Status = domain.StatusConfirming
	sess.Append(domain.RoleAssistant, msg)

	actions := []domain.ActionRequest{
		domain.Say(msg),
		domain.AwaitInput(domain.InputRequest{Kind: domain.InputConfirmation}),
	}
	return actions, OutcomeSuspend, nil
}

// stepConfirmParse classifies the confirmation reply and applies it.
func (e *Engine) stepConfirmParse(ctx context.Context, sess *domain.Session, ev domain.Event) ([]domain.ActionRequest, Outcome, error) {
	sess.Append(domain.RoleUser, ev.Text)

	decision := e.classify(ctx, ev.Text)

	switch decision.Kind {
	case ports.ConfirmYes:
		sess.Confirmed = true
		sess.ConfirmRetries = 0
		sess.Status = domain.StatusGenerating
		sess.Generation = domain.Generation{Status: domain.GenerationPending}
		return nil, OutcomeContinue, nil

	case ports.ConfirmEdit:
		return e.applyEdit(sess, decision)

	default:
		sess.ConfirmRetries++
		if sess.ConfirmRetries >= e.confirmRetries {
			e.failSession(sess, fmt.Sprintf("could not get a confirmation after %d attempts", e.confirmRetries))
			msg := "I couldn't make sense of the confirmation. Please start over when you're ready."
			sess.Append(domain.RoleAssistant, msg)
			return []domain.ActionRequest{domain.Say(msg)}, OutcomeTerminal, nil
		}
		msg := "Got it — which field should I update, and what's the new value? Or reply **yes** to confirm."
		sess.Append(domain.RoleAssistant, msg)
		// Loop back through the router: confirming + continue re-shows
		// the profile along with this clarification.
		return []domain.ActionRequest{domain.Say(msg)}, OutcomeContinue, nil
	}
}

// classify delegates to the language-understanding service, degrading
// to the deterministic classifier on transient failure.
func (e *Engine) classify(ctx context.Context, text string) ports.Confirmation {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	decision, err := e.understander.ClassifyConfirmation(callCtx, text)
	if err == nil {
		return decision
	}
	if !errors.Is(err, domain.ErrTransient) && !errors.Is(err, context.DeadlineExceeded) {
		e.logger.Debug("confirmation reply unparseable", "err", err)
		return ports.Confirmation{Kind: ports.ConfirmReject}
	}

	e.logger.Warn("classification service unavailable, using heuristics", "err", err)
	confirmed, edit := domain.HeuristicClassify(text)
	if confirmed {
		return ports.Confirmation{Kind: ports.ConfirmYes}
	}
	if edit != nil {
		return ports.Confirmation{Kind: ports.ConfirmEdit, Field: edit.Field, Value: edit.Value}
	}
	return ports.Confirmation{Kind: ports.ConfirmReject}
}

// applyEdit re-validates the new value through the schema and loops
// back to the confirmation screen. A successful edit never touches the
// per-field failure counters.
func (e *Engine) applyEdit(sess *domain.Session, decision ports.Confirmation) ([]domain.ActionRequest, Outcome, error) {
	field, ok := e.schema.Lookup(decision.Field)
	if !ok {
		msg := fmt.Sprintf("I don't collect a field called %q. Which of the listed fields should I update?", decision.Field)
		sess.Append(domain.RoleAssistant, msg)
		return []domain.ActionRequest{domain.Say(msg)}, OutcomeContinue, nil
	}

	value, err := field.Validate(decision.Value)
	if err != nil {
		reason := err.Error()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			reason = verr.Reason
		}
		sess.RecordError(field.Name, reason)
		e.metrics.ValidationFailures.WithLabelValues(field.Name).Inc()

		if field.Required && sess.Attempts[field.Name] >= e.maxAttempts {
			e.failSession(sess, fmt.Sprintf("could not collect a valid %s after %d attempts", field.Name, e.maxAttempts))
			return nil, OutcomeTerminal, nil
		}

		msg := fmt.Sprintf("That %s looks invalid: %s. Please try again.", field.Name, reason)
		sess.Append(domain.RoleAssistant, msg)
		return []domain.ActionRequest{domain.Say(msg)}, OutcomeContinue, nil
	}

	sess.Profile[field.Name] = value
	sess.Confirmed = false
	e.logger.Debug("profile edited", "session_id", sess.ID, "field", field.Name)
	return nil, OutcomeContinue, nil
}
