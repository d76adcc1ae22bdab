// Package automesh provides a high-level façade over the rule engine and its
// collaborators, enabling rapid construction of event-driven messaging
// automations. Most applications interact with this package by:
//  1. Creating an AutoMesh via New() (optionally overriding the defaults)
//  2. Defining rules through Rules() or restoring them from a state store
//  3. Feeding events in via Emit and observing results through callbacks,
//     Stats() and the execution log
//
// The façade delegates processing to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable state store, a
// structured logger and real collaborator implementations.
package automesh

import (
	"context"
	"net/http"
	"time"

	"github.com/hupe1980/automesh/action"
	"github.com/hupe1980/automesh/audit"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/engine"
	"github.com/hupe1980/automesh/logging"
	"github.com/hupe1980/automesh/rulestore"
	"github.com/hupe1980/automesh/statestore"
)

// Options configures the AutoMesh instance.
type Options struct {
	// Settings is the initial engine tuning (queue bound, log bound, delays,
	// rate limits). Persisted settings win over these on restart.
	Settings core.Settings

	// StateStore persists rules, stats and settings across restarts
	// (defaults to an in-memory implementation if not provided).
	StateStore core.StateStore

	// Collaborators are the external systems actions call into. Nil members
	// make the affected action types fail gracefully instead of panicking.
	Collaborators action.Collaborators

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// WebhookTimeout bounds outbound webhook calls. Zero keeps the default.
	WebhookTimeout time.Duration

	// HTTPClient overrides the webhook transport, mainly for tests.
	HTTPClient *http.Client

	// DisableSeeding skips insertion of the starter rules into an empty
	// rule store.
	DisableSeeding bool
}

// AutoMesh is the high-level façade aggregating the engine and its stores.
type AutoMesh struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new AutoMesh instance with optional overrides. Any unset
// dependency is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AutoMesh {
	opts := Options{
		Settings:   core.DefaultSettings(),
		StateStore: statestore.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(func(o *engine.Options) {
		o.Settings = opts.Settings
		o.StateStore = opts.StateStore
		o.Collaborators = opts.Collaborators
		o.Logger = opts.Logger
		o.WebhookTimeout = opts.WebhookTimeout
		o.HTTPClient = opts.HTTPClient
		o.DisableSeeding = opts.DisableSeeding
	})

	return &AutoMesh{opts: opts, engine: e}
}

// Emit enqueues an event for processing. It reports whether the event was
// accepted; a disabled or closed engine rejects events.
func (m *AutoMesh) Emit(eventType string, data map[string]any) (core.Event, bool) {
	return m.engine.Emit(eventType, data)
}

// On registers a callback for engine lifecycle notifications.
func (m *AutoMesh) On(t engine.CallbackType, cb engine.Callback) { m.engine.On(t, cb) }

// Rules exposes the rule store for CRUD operations.
func (m *AutoMesh) Rules() *rulestore.Store { return m.engine.Rules() }

// Stats returns a snapshot of the processing counters.
func (m *AutoMesh) Stats() core.Stats { return m.engine.Stats() }

// Settings returns the current engine settings.
func (m *AutoMesh) Settings() core.Settings { return m.engine.Settings() }

// UpdateSettings applies new engine settings and persists them.
func (m *AutoMesh) UpdateSettings(s core.Settings) { m.engine.UpdateSettings(s) }

// AuditLog exposes the bounded execution log.
func (m *AutoMesh) AuditLog() *audit.Log { return m.engine.AuditLog() }

// Engine exposes the underlying engine for advanced integrations.
func (m *AutoMesh) Engine() *engine.Engine { return m.engine }

// Flush blocks until the event queue is drained or the context expires.
func (m *AutoMesh) Flush(ctx context.Context) error { return m.engine.Flush(ctx) }

// Close stops the engine, finishing the in-flight event and persisting state.
func (m *AutoMesh) Close() error { return m.engine.Close() }
