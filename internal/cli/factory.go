// Package cli wires configuration into a runnable workflow for the
// command-line entrypoints.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/intake"
	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/pkg/adapters/airtable"
	"github.com/aretw0/intake/pkg/adapters/file"
	"github.com/aretw0/intake/pkg/adapters/heuristic"
	"github.com/aretw0/intake/pkg/adapters/memory"
	"github.com/aretw0/intake/pkg/adapters/openai"
	redisadapter "github.com/aretw0/intake/pkg/adapters/redis"
	"github.com/aretw0/intake/pkg/observability"
	"github.com/aretw0/intake/pkg/ports"
)

// Build holds the assembled workflow and its supporting pieces.
type Build struct {
	Workflow *intake.Workflow
	Registry *prometheus.Registry
	// Offline is true when no API key was configured and the
	// deterministic heuristics serve as collaborators.
	Offline bool

	closers []func() error
}

// Close releases backend connections held by the build.
func (b *Build) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewStore opens the configured session store backend. The returned
// function releases any backend connection.
func NewStore(cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewStore(), func() {}, nil
	case config.BackendFile:
		return file.New(cfg.Store.Path), func() {}, nil
	case config.BackendRedis:
		rstore := redisadapter.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		return rstore, func() { _ = rstore.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// NewBuild assembles the workflow from configuration.
func NewBuild(cfg *config.Config, logger *slog.Logger) (*Build, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	build := &Build{Registry: prometheus.NewRegistry()}
	metrics := observability.NewMetrics(build.Registry)

	opts := []intake.Option{
		intake.WithLogger(logger),
		intake.WithMetrics(metrics),
		intake.WithMaxAttemptsPerField(cfg.MaxAttemptsPerField),
		intake.WithMaxGenerationAttempts(cfg.MaxGenerationAttempts),
		intake.WithRetryDelay(cfg.RetryDelay),
	}

	// Session store backend.
	store, closeStore, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	build.closers = append(build.closers, func() error {
		closeStore()
		return nil
	})
	if rstore, ok := store.(*redisadapter.Store); ok {
		// Multiple replicas may share this backend; serialize turns
		// across processes as well.
		opts = append(opts, intake.WithLocker(redisadapter.NewLocker(rstore.Client())))
	}

	// Collaborators: the OpenAI client when a key is configured, the
	// deterministic heuristics otherwise.
	var understander ports.Understander
	var composer ports.Composer
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.New(cfg.OpenAIAPIKey, openai.WithModel(cfg.Model))
		if err != nil {
			return nil, err
		}
		understander, composer = client, client
	} else {
		offline := heuristic.New()
		understander, composer = offline, offline
		build.Offline = true
		logger.Warn("OPENAI_API_KEY not set, running with offline heuristics")
	}

	if cfg.AirtableConfigured() {
		recorder, err := airtable.New(cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.Table)
		if err != nil {
			return nil, err
		}
		opts = append(opts, intake.WithRecorder(recorder))
	} else {
		logger.Info("airtable not configured, completed profiles stay in the session store")
	}

	workflow, err := intake.New(schema, understander, composer, store, opts...)
	if err != nil {
		return nil, err
	}
	build.Workflow = workflow
	return build, nil
}
