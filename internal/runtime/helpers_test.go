package runtime

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// stubUnderstander lets each test script extraction and classification.
type stubUnderstander struct {
	extract  func(field domain.Field, raw string) (string, error)
	classify func(raw string) (ports.Confirmation, error)
}

func (s *stubUnderstander) Extract(_ context.Context, field domain.Field, raw string) (string, error) {
	if s.extract != nil {
		return s.extract(field, raw)
	}
	return raw, nil
}

func (s *stubUnderstander) ClassifyConfirmation(_ context.Context, raw string) (ports.Confirmation, error) {
	if s.classify != nil {
		return s.classify(raw)
	}
	return ports.Confirmation{Kind: ports.ConfirmReject}, nil
}

// stubComposer counts calls and returns scripted results.
type stubComposer struct {
	compose func(profile map[string]string) (string, error)
	calls   int
}

func (s *stubComposer) Compose(_ context.Context, profile map[string]string) (string, error) {
	s.calls++
	if s.compose != nil {
		return s.compose(profile)
	}
	return "A fine summary of the collected profile.", nil
}

// stubRecorder captures the record that finalize persists.
type stubRecorder struct {
	save    func(profile map[string]string, summary string) (string, error)
	profile map[string]string
	summary string
}

func (s *stubRecorder) SaveRecord(_ context.Context, profile map[string]string, summary string) (string, error) {
	s.profile = profile
	s.summary = summary
	if s.save != nil {
		return s.save(profile, summary)
	}
	return "rec-1", nil
}

func passthroughEngine(opts ...EngineOption) *Engine {
	return NewEngine(domain.DefaultSchema(), &stubUnderstander{}, &stubComposer{}, opts...)
}

// completeProfile satisfies every field of the default schema.
func completeProfile() map[string]string {
	return map[string]string{
		"name":   "Ada Lovelace",
		"email":  "ada@example.com",
		"mobile": "+441234567890",
		"age":    "36",
		"city":   "London",
	}
}

func collectingSession(profile map[string]string) *domain.Session {
	sess := domain.NewSession("s1")
	sess.Status = domain.StatusCollecting
	for k, v := range profile {
		sess.Profile[k] = v
	}
	return sess
}

func sayPayload(actions []domain.ActionRequest) string {
	for _, a := range actions {
		if a.Type == domain.ActionSay {
			if s, ok := a.Payload.(string); ok {
				return s
			}
		}
	}
	return ""
}

func awaitsInput(actions []domain.ActionRequest) bool {
	for _, a := range actions {
		if a.Type == domain.ActionAwaitInput {
			return true
		}
	}
	return false
}
