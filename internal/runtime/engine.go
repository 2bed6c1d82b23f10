package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/observability"
	"github.com/aretw0/intake/pkg/ports"
)

// Default bounds. Overridable through engine options.
const (
	DefaultMaxAttemptsPerField   = 3
	DefaultMaxConfirmRetries     = 3
	DefaultMaxGenerationAttempts = 3
	DefaultRetryDelay            = 500 * time.Millisecond
	DefaultCollaboratorTimeout   = 20 * time.Second
)

// Outcome tells the driver what to do after a step executed.
type Outcome int

const (
	// OutcomeContinue chains into the router again with a synthetic
	// continue event, without waiting for new input.
	OutcomeContinue Outcome = iota
	// OutcomeSuspend stops the loop until the next user message.
	OutcomeSuspend
	// OutcomeTerminal stops the loop for good.
	OutcomeTerminal
)

// Engine executes workflow steps. It owns all session mutation; the
// router only decides which step runs.
type Engine struct {
	schema       *domain.Schema
	understander ports.Understander
	composer     ports.Composer
	recorder     ports.RecordStore

	logger  *slog.Logger
	metrics *observability.Metrics

	maxAttempts    int
	confirmRetries int
	genAttempts    int
	retryDelay     time.Duration
	callTimeout    time.Duration
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics wires Prometheus collectors.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithRecorder sets the durable record store invoked on finalize.
func WithRecorder(r ports.RecordStore) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithMaxAttemptsPerField bounds rejected answers per field.
func WithMaxAttemptsPerField(n int) EngineOption {
	return func(e *Engine) { e.maxAttempts = n }
}

// WithMaxConfirmRetries bounds unparseable confirmation replies.
func WithMaxConfirmRetries(n int) EngineOption {
	return func(e *Engine) { e.confirmRetries = n }
}

// WithMaxGenerationAttempts bounds composer retries.
func WithMaxGenerationAttempts(n int) EngineOption {
	return func(e *Engine) { e.genAttempts = n }
}

// WithRetryDelay sets the pause between composer attempts.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.retryDelay = d }
}

// WithCollaboratorTimeout bounds each external call.
func WithCollaboratorTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.callTimeout = d }
}

// NewEngine creates an engine over the schema and collaborators.
func NewEngine(schema *domain.Schema, u ports.Understander, c ports.Composer, opts ...EngineOption) *Engine {
	e := &Engine{
		schema:         schema,
		understander:   u,
		composer:       c,
		logger:         logging.NewNop(),
		metrics:        observability.NewNopMetrics(),
		maxAttempts:    DefaultMaxAttemptsPerField,
		confirmRetries: DefaultMaxConfirmRetries,
		genAttempts:    DefaultMaxGenerationAttempts,
		retryDelay:     DefaultRetryDelay,
		callTimeout:    DefaultCollaboratorTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the field declarations the engine collects.
func (e *Engine) Schema() *domain.Schema { return e.schema }

// ExecuteStep runs one step against the session, mutating it in place.
// The returned actions are for the host to render; the outcome tells
// the driver whether to chain, suspend, or stop.
func (e *Engine) ExecuteStep(ctx context.Context, step domain.Step, sess *domain.Session, ev domain.Event) ([]domain.ActionRequest, Outcome, error) {
	e.metrics.StepsTotal.WithLabelValues(string(step)).Inc()
	e.logger.Debug("executing step", "step", step, "session_id", sess.ID, "status", sess.Status)

	switch step {
	case domain.StepInit:
		return e.stepInit(sess)
	case domain.StepAsk:
		return e.stepAsk(sess)
	case domain.StepProcessAnswer:
		return e.stepProcessAnswer(ctx, sess, ev)
	case domain.StepConfirmShow:
		return e.stepConfirmShow(sess)
	case domain.StepConfirmParse:
		return e.stepConfirmParse(ctx, sess, ev)
	case domain.StepGenerate:
		return e.stepGenerate(ctx, sess)
	case domain.StepFinalize:
		return e.stepFinalize(ctx, sess)
	case domain.StepTerminal:
		return e.stepTerminal(sess)
	}
	return nil, OutcomeTerminal, fmt.Errorf("unknown step %q", step)
}

// callContext bounds a collaborator call.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout > 0 {
		return context.WithTimeout(ctx, e.callTimeout)
	}
	return ctx, func() {}
}

// failSession moves the session to the failed terminal status.
func (e *Engine) failSession(sess *domain.Session, reason string) {
	sess.Status = domain.StatusFailed
	sess.FailReason = reason
	e.metrics.SessionsFailed.Inc()
	e.logger.Warn("session failed", "session_id", sess.ID, "reason", reason)
}
