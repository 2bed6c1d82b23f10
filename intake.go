package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/internal/runtime"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/observability"
	"github.com/aretw0/intake/pkg/ports"
	"github.com/aretw0/intake/pkg/session"
)

// Version is the released version of the intake engine.
const Version = "0.4.1"

// maxChainedSteps bounds the number of steps one turn may execute
// without suspending. Hitting it means the step graph is looping.
const maxChainedSteps = 16

// Workflow is the high-level entry point: the session driver wrapping
// the router, the step engine and the locked session store.
type Workflow struct {
	engine   *runtime.Engine
	router   *runtime.Router
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures the Workflow.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	recorder   ports.RecordStore
	locker     ports.DistributedLocker
	engineOpts []runtime.EngineOption
}

// WithLogger sets a structured logger for the driver and the engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics wires Prometheus collectors through the whole stack.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithRecorder sets the durable record store used on finalize.
func WithRecorder(r ports.RecordStore) Option {
	return func(c *config) { c.recorder = r }
}

// WithLocker enables distributed per-session locking for
// multi-replica deployments.
func WithLocker(l ports.DistributedLocker) Option {
	return func(c *config) { c.locker = l }
}

// WithMaxAttemptsPerField bounds rejected answers per field.
func WithMaxAttemptsPerField(n int) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, runtime.WithMaxAttemptsPerField(n))
	}
}

// WithMaxGenerationAttempts bounds composer retries.
func WithMaxGenerationAttempts(n int) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, runtime.WithMaxGenerationAttempts(n))
	}
}

// WithRetryDelay sets the pause between composer attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, runtime.WithRetryDelay(d))
	}
}

// WithCollaboratorTimeout bounds each external call.
func WithCollaboratorTimeout(d time.Duration) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, runtime.WithCollaboratorTimeout(d))
	}
}

// New initializes a Workflow over the schema, collaborators and
// session store.
func New(schema *domain.Schema, u ports.Understander, composer ports.Composer, store ports.SessionStore, opts ...Option) (*Workflow, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if u == nil || composer == nil {
		return nil, fmt.Errorf("understander and composer are required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	cfg := &config{
		logger:  logging.NewNop(),
		metrics: observability.NewNopMetrics(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	engineOpts := append([]runtime.EngineOption{
		runtime.WithLogger(cfg.logger),
		runtime.WithMetrics(cfg.metrics),
	}, cfg.engineOpts...)
	if cfg.recorder != nil {
		engineOpts = append(engineOpts, runtime.WithRecorder(cfg.recorder))
	}

	managerOpts := []session.Option{session.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(cfg.locker))
	}

	return &Workflow{
		engine:   runtime.NewEngine(schema, u, composer, engineOpts...),
		router:   runtime.NewRouter(schema),
		sessions: session.NewManager(store, managerOpts...),
		logger:   cfg.logger,
		metrics:  cfg.metrics,
	}, nil
}

// TurnResult is what one driver turn hands back to the boundary.
type TurnResult struct {
	// Session is a snapshot of the state after the turn.
	Session *domain.Session `json:"session"`
	// Actions accumulate everything the steps emitted this turn.
	Actions []domain.ActionRequest `json:"actions,omitempty"`
	// Suspended is set when the workflow is waiting for user input.
	Suspended bool `json:"suspended"`
	// Terminal is set when the session reached completed or failed.
	Terminal bool `json:"terminal"`
}

// HandleTurn runs one turn: load the session (creating it on first
// contact), route and execute steps until a suspension point or a
// terminal state, persisting after every step.
func (w *Workflow) HandleTurn(ctx context.Context, sessionID string, ev domain.Event) (*TurnResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	start := time.Now()
	w.metrics.TurnsTotal.Inc()

	var result *TurnResult
	err := w.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := w.sessions.Store()

		sess, err := store.Load(ctx, sessionID)
		if err != nil {
			if err != domain.ErrSessionNotFound {
				return fmt.Errorf("failed to load session: %w", err)
			}
			sess = domain.NewSession(sessionID)
		}

		var actions []domain.ActionRequest
		outcome := runtime.OutcomeContinue

		for steps := 0; ; steps++ {
			if steps >= maxChainedSteps {
				return fmt.Errorf("step chain exceeded %d iterations without suspending", maxChainedSteps)
			}

			step, err := w.router.Route(sess, ev)
			if err != nil {
				return err
			}

			var stepActions []domain.ActionRequest
			stepActions, outcome, err = w.engine.ExecuteStep(ctx, step, sess, ev)
			if err != nil {
				return err
			}
			actions = append(actions, stepActions...)

			sess.UpdatedAt = time.Now().UTC()
			if err := store.Save(ctx, sessionID, sess); err != nil {
				return fmt.Errorf("failed to persist session: %w", err)
			}

			if outcome != runtime.OutcomeContinue {
				break
			}
			ev = domain.ContinueEvent()
		}

		result = &TurnResult{
			Session:   sess,
			Actions:   actions,
			Suspended: outcome == runtime.OutcomeSuspend,
			Terminal:  outcome == runtime.OutcomeTerminal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.metrics.TurnDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

// Restart clears a session so the next turn starts from scratch.
func (w *Workflow) Restart(ctx context.Context, sessionID string) error {
	return w.sessions.Delete(ctx, sessionID)
}

// Session returns the persisted snapshot for an identifier.
func (w *Workflow) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return w.sessions.Load(ctx, sessionID)
}

// Sessions lists the known session identifiers.
func (w *Workflow) Sessions(ctx context.Context) ([]string, error) {
	return w.sessions.List(ctx)
}

// Schema exposes the field declarations the workflow collects.
func (w *Workflow) Schema() *domain.Schema {
	return w.engine.Schema()
}
