package ports

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
)

// ConfirmationKind classifies a confirmation reply.
type ConfirmationKind string

const (
	ConfirmYes    ConfirmationKind = "confirm"
	ConfirmEdit   ConfirmationKind = "edit"
	ConfirmReject ConfirmationKind = "reject"
)

// Confirmation is the parsed outcome of a confirmation reply.
type Confirmation struct {
	Kind ConfirmationKind
	// Field and Value are set when Kind == ConfirmEdit.
	Field string
	Value string
}

// Understander is the language-understanding collaborator. It turns
// free text into structured data. Implementations must be safe to
// retry and must wrap timeouts and service errors with
// domain.ErrTransient so the engine can apply its deterministic
// fallbacks.
type Understander interface {
	// Extract pulls the value for a field out of a raw user answer.
	// A non-transient error means the text carried no usable value.
	Extract(ctx context.Context, field domain.Field, raw string) (string, error)

	// ClassifyConfirmation interprets a reply to the confirmation
	// prompt as confirm, edit(field, value) or reject.
	ClassifyConfirmation(ctx context.Context, raw string) (Confirmation, error)
}

// Composer is the generation collaborator producing the derived
// summary text from a complete profile. Failures wrapped with
// domain.ErrTransient feed the coordinator's retry policy.
type Composer interface {
	Compose(ctx context.Context, profile map[string]string) (string, error)
}

// RecordStore persists the final profile and summary to a durable
// downstream system. Invoked only after the workflow completed; a
// failure here is reported, never fatal.
type RecordStore interface {
	SaveRecord(ctx context.Context, profile map[string]string, summary string) (recordID string, err error)
}
