package domain

import "time"

// Status defines the workflow phase of a session. Exactly one is active
// at any time.
type Status string

const (
	// StatusNew is the zero value of a session that has not run init yet.
	StatusNew Status = ""

	StatusCollecting Status = "collecting"
	StatusConfirming Status = "confirming"
	StatusGenerating Status = "generating_summary"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// GenerationStatus tracks the summary generation sub-lifecycle.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationInProgress GenerationStatus = "in_progress"
	GenerationCompleted  GenerationStatus = "completed"
	// GenerationFallback marks that the composer service exhausted its
	// retries and the deterministic template produced the summary.
	GenerationFallback GenerationStatus = "failed_fallback_used"
	GenerationFailed   GenerationStatus = "failed"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the append-only conversation transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// FieldError records a rejected answer for a field. The most recent
// entry per field is surfaced as a hint when the field is re-asked.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Generation is the summary-generation record kept on the session.
type Generation struct {
	Status   GenerationStatus `json:"status"`
	Text     string           `json:"text,omitempty"`
	Attempts int              `json:"attempts"`
	// LastError keeps the final composer error when the fallback was used.
	LastError string `json:"last_error,omitempty"`
}

// Session represents the durable state of one intake conversation,
// keyed by an opaque session identifier.
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	// Profile maps field names to normalized values. It only ever
	// contains keys declared in the schema.
	Profile map[string]string `json:"profile"`

	// Transcript is the ordered conversation log. Append-only.
	Transcript []Turn `json:"transcript"`

	// Cursor is the field last asked for, or empty if none is pending.
	Cursor string `json:"cursor,omitempty"`

	// Confirmed is set when the user approved the profile.
	Confirmed bool `json:"confirmed"`

	// Attempts counts rejected answers per field. Monotonically
	// non-decreasing; reset only by a full restart.
	Attempts map[string]int `json:"attempts"`

	// ConfirmRetries counts unparseable confirmation replies.
	ConfirmRetries int `json:"confirm_retries"`

	Errors []FieldError `json:"errors,omitempty"`

	Generation Generation `json:"generation"`

	// RecordID is the durable-store identifier assigned on finalize,
	// empty if persistence failed or was not configured.
	RecordID string `json:"record_id,omitempty"`

	// FailReason holds the human-readable cause for StatusFailed.
	FailReason string `json:"fail_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session for the given identifier.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		Status:     StatusNew,
		Profile:    make(map[string]string),
		Attempts:   make(map[string]int),
		Generation: Generation{Status: GenerationPending},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append adds a turn to the transcript.
func (s *Session) Append(role Role, text string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Text: text})
}

// LastErrorFor returns the most recent rejection reason for a field.
func (s *Session) LastErrorFor(field string) (string, bool) {
	for i := len(s.Errors) - 1; i >= 0; i-- {
		if s.Errors[i].Field == field {
			return s.Errors[i].Reason, true
		}
	}
	return "", false
}

// RecordError appends a field error and bumps the attempt counter.
func (s *Session) RecordError(field, reason string) {
	s.Errors = append(s.Errors, FieldError{Field: field, Reason: reason})
	s.Attempts[field]++
}

// Terminal reports whether the session accepts further transitions.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Clone returns a deep copy so callers can mutate freely.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Profile = make(map[string]string, len(s.Profile))
	for k, v := range s.Profile {
		cp.Profile[k] = v
	}
	cp.Attempts = make(map[string]int, len(s.Attempts))
	for k, v := range s.Attempts {
		cp.Attempts[k] = v
	}
	cp.Transcript = append([]Turn(nil), s.Transcript...)
	cp.Errors = append([]FieldError(nil), s.Errors...)
	return &cp
}
