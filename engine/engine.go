package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hupe1980/automesh/action"
	"github.com/hupe1980/automesh/audit"
	"github.com/hupe1980/automesh/condition"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
	"github.com/hupe1980/automesh/rulestore"
	"github.com/hupe1980/automesh/statestore"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Settings is the initial engine configuration. Persisted settings from
	// the state store take precedence so restarts keep their tuning.
	Settings core.Settings

	// StateStore persists the {rules, stats, settings} aggregate. Defaults
	// to an in-memory store.
	StateStore core.StateStore

	// Collaborators are the external modules actions call into. Nil members
	// cause the affected actions to fail gracefully.
	Collaborators action.Collaborators

	// Logger receives engine diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// WebhookTimeout bounds outbound webhook calls.
	WebhookTimeout time.Duration

	// HTTPClient overrides the webhook transport, mainly for tests.
	HTTPClient *http.Client

	// DisableSeeding skips insertion of the starter rule templates into an
	// empty store.
	DisableSeeding bool
}

// Engine is the rule-based automation core. It owns the bounded event queue,
// the rule store, the action executor, the stats counters and the audit log,
// and runs the single-consumer processing loop that ties them together.
//
// Concurrency model: at most one drain loop is active (guarded by the
// processing flag), so events are handled strictly in arrival order and a
// later event never interleaves with an earlier one's side effects. Rule CRUD
// and stats reads may come from other goroutines; all shared state is mutex
// guarded.
type Engine struct {
	mu         sync.Mutex
	queue      []core.Event
	processing bool
	closed     bool
	settings   core.Settings
	stats      core.Stats

	rules    *rulestore.Store
	exec     *action.Executor
	state    core.StateStore
	auditLog *audit.Log
	limiter  *core.ActionLimiter

	callbacks *callbackRegistry
	logger    logging.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	// sleep is swapped out in tests to keep the inter-event delay fast.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs an engine. Previously persisted state is restored first
// (rules, stats and settings), then the starter rules are seeded if the store
// is still empty.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Settings:   core.DefaultSettings(),
		StateStore: statestore.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		settings:  opts.Settings,
		state:     opts.StateStore,
		callbacks: newCallbackRegistry(),
		logger:    opts.Logger,
		baseCtx:   ctx,
		cancel:    cancel,
		sleep:     sleepCtx,
	}
	e.stats.RulesTriggered = make(map[string]int64)

	restored := e.restoreState()

	e.auditLog = audit.NewLog(e.settings.MaxLogSize)
	e.limiter = core.NewActionLimiter(e.settings.MaxActionsPerMinute)

	e.rules = rulestore.New(func(o *rulestore.Options) {
		o.Logger = opts.Logger
		o.OnChange = func() {
			e.persist(e.baseCtx)
			e.callbacks.fire(e.logger, &CallbackContext{Type: CallbackRulesChanged})
		}
	})
	if restored != nil {
		e.rules.Replace(restored.Rules)
	}
	if !opts.DisableSeeding {
		if n := e.rules.Seed(); n > 0 {
			e.logger.Info("seeded starter rules", "count", n)
		}
	}

	e.exec = action.NewExecutor(opts.Collaborators, func(o *action.Options) {
		o.Logger = opts.Logger
		o.AuditLog = e.auditLog
		o.Limiter = e.limiter
		o.WebhookTimeout = opts.WebhookTimeout
		o.HTTPClient = opts.HTTPClient
	})

	return e
}

// restoreState loads the persisted aggregate. Load failures are logged and
// the engine starts fresh; persistence is best-effort.
func (e *Engine) restoreState() *core.EngineState {
	if e.state == nil {
		return nil
	}
	state, err := e.state.Load(e.baseCtx)
	if err != nil {
		e.logger.Error("failed to load persisted state", "error", err)
		return nil
	}
	if state == nil {
		return nil
	}

	e.settings = state.Settings
	e.stats = state.Stats.Clone()
	if e.stats.RulesTriggered == nil {
		e.stats.RulesTriggered = make(map[string]int64)
	}
	e.logger.Info("restored persisted state", "rules", len(state.Rules))
	return state
}

// On registers a callback for the given lifecycle point.
func (e *Engine) On(t CallbackType, cb Callback) {
	e.callbacks.add(t, cb)
}

// Rules exposes the rule store for CRUD operations.
func (e *Engine) Rules() *rulestore.Store { return e.rules }

// Executor exposes the action executor, e.g. to register custom handlers
// before the first event is emitted.
func (e *Engine) Executor() *action.Executor { return e.exec }

// AuditLog exposes the bounded execution log.
func (e *Engine) AuditLog() *audit.Log { return e.auditLog }

// Stats returns a snapshot of the processing counters.
func (e *Engine) Stats() core.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Clone()
}

// Settings returns the current engine configuration.
func (e *Engine) Settings() core.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings replaces the engine configuration and persists the
// aggregate. Queue and log bounds apply from the next mutation; the action
// rate cap applies immediately.
func (e *Engine) UpdateSettings(s core.Settings) {
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	e.auditLog.SetCapacity(s.MaxLogSize)
	e.limiter.SetMax(s.MaxActionsPerMinute)
	e.persist(e.baseCtx)
}

// QueueLen returns the number of queued events.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Emit raises a domain event. It is a no-op (returning ok=false) when the
// engine is disabled or closed. The event is appended to the bounded FIFO
// queue - dropping the oldest entry on overflow - and the processing loop is
// started if idle.
func (e *Engine) Emit(eventType string, data map[string]any) (core.Event, bool) {
	ev := core.NewEvent(eventType, data)

	e.mu.Lock()
	if e.closed || !e.settings.Enabled {
		e.mu.Unlock()
		return core.Event{}, false
	}

	e.queue = append(e.queue, ev)
	if max := e.settings.MaxQueueSize; max > 0 && len(e.queue) > max {
		dropped := e.queue[0]
		e.queue = e.queue[1:]
		e.logger.Warn("event queue overflow, dropping oldest", "dropped_event_id", dropped.ID, "dropped_event_type", dropped.Type)
	}

	start := !e.processing
	if start {
		e.processing = true
	}
	e.mu.Unlock()

	e.logger.Debug("event emitted", "event_id", ev.ID, "event_type", eventType)
	e.callbacks.fire(e.logger, &CallbackContext{Type: CallbackEventEmitted, Event: &ev})

	// The loop starts only after the emitted notification so observers see
	// the event before any of its side effects.
	if start {
		go e.drain()
	}
	return ev, true
}

// drain is the single-consumer processing loop. It removes the head event,
// fully processes it (every matching rule and all its actions run to
// completion) before touching the next, then pauses for the configured
// inter-event delay. Engine state is persisted once the queue empties.
func (e *Engine) drain() {
	for {
		e.mu.Lock()
		if e.closed || !e.settings.Enabled || len(e.queue) == 0 {
			e.processing = false
			e.mu.Unlock()
			e.persist(e.baseCtx)
			return
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		delay := e.settings.ExecutionDelay
		e.mu.Unlock()

		e.processEvent(e.baseCtx, ev)

		if delay > 0 {
			if err := e.sleep(e.baseCtx, delay); err != nil {
				e.mu.Lock()
				e.processing = false
				e.mu.Unlock()
				return
			}
		}
	}
}

// processEvent matches rules against one event and runs their actions. No
// failure may escape: a crashed loop would permanently stall all subsequent
// events, which is the single worst failure mode this engine avoids.
func (e *Engine) processEvent(ctx context.Context, ev core.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("event processing panic: %v", rec)
			e.logger.Error("recovered from processing panic", "event_id", ev.ID, "panic", rec)
			e.auditLog.Error("event processing panic", map[string]any{
				"event_id": ev.ID, "event_type": ev.Type, "panic": fmt.Sprintf("%v", rec),
			})
			e.callbacks.fire(e.logger, &CallbackContext{Type: CallbackError, Event: &ev, Err: err})
		}
	}()

	e.mu.Lock()
	e.stats.TotalEventsProcessed++
	e.stats.LastExecution = time.Now().UTC()
	e.mu.Unlock()

	evCtx := buildContext(ev)
	doc, err := json.Marshal(evCtx)
	if err != nil {
		e.logger.Error("failed to encode event context", "event_id", ev.ID, "error", err)
		doc = []byte("{}")
	}

	for _, rule := range e.rules.FindByTrigger(ev.Type) {
		if !condition.EvaluateDoc(rule.Conditions, rule.ConditionLogic, doc) {
			e.logger.Debug("rule skipped", "rule_id", rule.ID, "event_id", ev.ID)
			continue
		}

		e.mu.Lock()
		e.stats.RulesTriggered[rule.ID]++
		e.mu.Unlock()

		e.logger.Debug("rule matched", "rule_id", rule.ID, "rule_name", rule.Name, "event_id", ev.ID)
		e.callbacks.fire(e.logger, &CallbackContext{Type: CallbackRuleMatched, Event: &ev, Rule: &rule})

		results := e.exec.Run(ctx, rule, ev, evCtx)

		e.mu.Lock()
		e.stats.TotalActionsExecuted += int64(len(results))
		e.mu.Unlock()

		for i := range results {
			e.callbacks.fire(e.logger, &CallbackContext{
				Type: CallbackActionExecuted, Event: &ev, Rule: &rule, Result: &results[i],
			})
		}

		e.auditLog.Info("rule executed", map[string]any{
			"rule_id":   rule.ID,
			"rule_name": rule.Name,
			"event_id":  ev.ID,
			"actions":   len(results),
		})
	}

	e.callbacks.fire(e.logger, &CallbackContext{Type: CallbackEventProcessed, Event: &ev})
}

// buildContext assembles the evaluation context: the event payload at the top
// level plus event metadata under "event".
func buildContext(ev core.Event) map[string]any {
	ctx := make(map[string]any, len(ev.Data)+1)
	for k, v := range ev.Data {
		ctx[k] = v
	}
	ctx["event"] = map[string]any{
		"id":        ev.ID,
		"type":      ev.Type,
		"timestamp": ev.Timestamp.Format(time.RFC3339Nano),
	}
	return ctx
}

// persist serializes the full aggregate with overwrite semantics. Failures
// are logged and recorded in the audit log; in-memory state stays
// authoritative for the session.
func (e *Engine) persist(ctx context.Context) {
	if e.state == nil {
		return
	}

	e.mu.Lock()
	state := core.EngineState{
		Stats:    e.stats.Clone(),
		Settings: e.settings,
	}
	e.mu.Unlock()
	state.Rules = e.rules.List()

	if err := e.state.Save(ctx, state); err != nil {
		e.logger.Error("failed to persist engine state", "error", err)
		e.auditLog.Error("persistence failed", map[string]any{"error": err.Error()})
	}
}

// Flush blocks until the queue is empty and no event is in flight, or until
// the context is cancelled. Intended for tests and orderly shutdown.
func (e *Engine) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		e.mu.Lock()
		// A closed engine never drains its backlog, so only the in-flight
		// event is waited for.
		idle := !e.processing && (len(e.queue) == 0 || e.closed)
		e.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the engine: no further events are accepted, the in-flight
// event runs to completion and the final state is persisted.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Flush(ctx); err != nil {
		e.logger.Warn("engine close timed out waiting for in-flight event", "error", err)
	}

	e.cancel()
	e.persist(context.Background())
	e.logger.Info("engine closed")
	return nil
}

// sleepCtx pauses for d but returns early when the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
