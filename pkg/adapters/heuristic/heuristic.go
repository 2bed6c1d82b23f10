// Package heuristic provides an offline collaborator built on the
// engine's deterministic text heuristics. It keeps the workflow fully
// functional without network access: extraction and confirmation
// parsing use the regex patterns, and composition uses the template
// summary. Useful for development, tests and demos.
package heuristic

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// Collaborator implements ports.Understander and ports.Composer with
// no I/O.
type Collaborator struct{}

var (
	_ ports.Understander = (*Collaborator)(nil)
	_ ports.Composer     = (*Collaborator)(nil)
)

// New creates an offline collaborator.
func New() *Collaborator {
	return &Collaborator{}
}

// Extract applies the field-specific patterns to the raw text.
func (c *Collaborator) Extract(ctx context.Context, field domain.Field, raw string) (string, error) {
	return domain.HeuristicExtract(field, raw), nil
}

// ClassifyConfirmation recognizes affirmations and "change X to Y"
// edits; anything else is a rejection.
func (c *Collaborator) ClassifyConfirmation(ctx context.Context, raw string) (ports.Confirmation, error) {
	confirmed, edit := domain.HeuristicClassify(raw)
	if confirmed {
		return ports.Confirmation{Kind: ports.ConfirmYes}, nil
	}
	if edit != nil {
		return ports.Confirmation{Kind: ports.ConfirmEdit, Field: edit.Field, Value: edit.Value}, nil
	}
	return ports.Confirmation{Kind: ports.ConfirmReject}, nil
}

// Compose renders the template summary from the profile.
func (c *Collaborator) Compose(ctx context.Context, profile map[string]string) (string, error) {
	return domain.TemplateSummary(profile), nil
}
