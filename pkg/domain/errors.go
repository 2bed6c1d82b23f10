package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTransient marks a collaborator failure that is safe to retry.
// Adapters wrap their timeout and 5xx-style errors with it.
var ErrTransient = errors.New("transient service failure")

// ValidationError rejects a single field answer. Recoverable: the field
// is re-asked up to the attempt bound.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnroutableError reports a (status, event) pair with no routing rule.
// This is a programming or data-integrity fault and aborts the turn.
type UnroutableError struct {
	Status Status
	Event  EventType
}

func (e *UnroutableError) Error() string {
	return fmt.Sprintf("no route for status %q with event %q", e.Status, e.Event)
}

// IntegrityError reports an incomplete profile reaching generation.
// Fatal to the generation step, never retried.
type IntegrityError struct {
	Missing []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("profile incomplete at generation: missing %v", e.Missing)
}

// StoreError wraps a durable-record persistence failure. Reported to
// the boundary as a warning after successful completion, never fatal.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("record store: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Transient wraps err so errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
