package runtime

import (
	"github.com/aretw0/intake/pkg/domain"
)

// Router maps (session snapshot, incoming event) to the next step. It
// is a pure decision table: no side effects, no I/O, and routing the
// same pair twice yields the same step.
type Router struct {
	schema *domain.Schema
}

// NewRouter creates a router over the given schema.
func NewRouter(schema *domain.Schema) *Router {
	return &Router{schema: schema}
}

// Route evaluates the decision table in order; first match wins.
func (r *Router) Route(sess *domain.Session, ev domain.Event) (domain.Step, error) {
	if sess == nil || sess.Status == domain.StatusNew {
		return domain.StepInit, nil
	}

	switch sess.Status {
	case domain.StatusCollecting:
		if ev.Type == domain.EventMessage {
			return domain.StepProcessAnswer, nil
		}
		if r.schema.Complete(sess.Profile) {
			return domain.StepConfirmShow, nil
		}
		return domain.StepAsk, nil

	case domain.StatusConfirming:
		if ev.Type == domain.EventMessage {
			return domain.StepConfirmParse, nil
		}
		// Resuming or looping back after an edit: show the profile again.
		return domain.StepConfirmShow, nil

	case domain.StatusGenerating:
		if generationDone(sess.Generation.Status) {
			return domain.StepFinalize, nil
		}
		return domain.StepGenerate, nil

	case domain.StatusCompleted, domain.StatusFailed:
		return domain.StepTerminal, nil
	}

	return "", &domain.UnroutableError{Status: sess.Status, Event: ev.Type}
}

func generationDone(s domain.GenerationStatus) bool {
	switch s {
	case domain.GenerationCompleted, domain.GenerationFallback, domain.GenerationFailed:
		return true
	}
	return false
}
