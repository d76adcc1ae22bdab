package action

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/automesh/audit"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
	"github.com/hupe1980/automesh/security"
	"github.com/hupe1980/automesh/template"
)

// Collaborators bundles the external modules handlers call to perform
// concrete effects. Nil members are tolerated: affected handlers fail with a
// collaborator_not_configured result instead of crashing.
type Collaborators struct {
	Messages      core.MessageSender
	Templates     core.TemplateStore
	CRM           core.CRM
	Tasks         core.TaskStore
	Notifications core.NotificationSink
	Campaigns     core.CampaignQueue
	AI            core.AIGenerator
	Escalations   core.EscalationSink
}

// Request carries everything a handler needs for one dispatch: the action
// record, the triggering event and the evaluation context.
type Request struct {
	Action  core.Action
	Event   core.Event
	Context map[string]any

	doc []byte // JSON-encoded Context, shared across the event's actions
}

// String returns the named parameter rendered as a string with {{dot.path}}
// placeholders interpolated against the event context.
func (r *Request) String(key string) string {
	v, ok := r.Action.Params[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return template.InterpolateDoc(s, r.doc)
}

// StringOr returns the named parameter or, when absent, the value resolved
// from the event context at the given fallback path.
func (r *Request) StringOr(key, fallbackPath string) string {
	if s := r.String(key); s != "" {
		return s
	}
	return gjson.GetBytes(r.doc, fallbackPath).String()
}

// render interpolates arbitrary text against the event context.
func (r *Request) render(text string) string {
	return template.InterpolateDoc(text, r.doc)
}

// Bool returns the named parameter as a boolean, false when absent.
func (r *Request) Bool(key string) bool {
	b, _ := r.Action.Params[key].(bool)
	return b
}

// Int64 returns the named parameter coerced to int64, 0 when absent or
// non-numeric.
func (r *Request) Int64(key string) int64 {
	switch v := r.Action.Params[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Map returns the named parameter as an object, nil when absent or of another
// shape.
func (r *Request) Map(key string) map[string]any {
	m, _ := r.Action.Params[key].(map[string]any)
	return m
}

// Handler executes one action kind. The returned map becomes the result
// output; a returned error is converted into a failure result by the
// executor.
type Handler func(ctx context.Context, req *Request) (map[string]any, error)

// Options holds dependency and configuration overrides passed to NewExecutor.
type Options struct {
	// Logger receives executor diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// AuditLog receives per-action failure entries and log_event writes.
	// Defaults to a log bounded at audit.DefaultCapacity.
	AuditLog *audit.Log

	// Limiter caps attempted actions per minute. Defaults to unlimited.
	Limiter *core.ActionLimiter

	// WebhookTimeout is the hard deadline for outbound webhook calls.
	WebhookTimeout time.Duration

	// HTTPClient overrides the webhook transport, mainly for tests.
	HTTPClient *http.Client

	// ValidateURL overrides webhook target validation. Defaults to
	// security.ValidateWebhookURL; tests pointing at loopback servers
	// relax it.
	ValidateURL func(rawURL string) error
}

// DefaultWebhookTimeout bounds outbound webhook calls when unconfigured.
const DefaultWebhookTimeout = 10 * time.Second

// Executor dispatches action records to typed handlers, strictly one at a
// time, and converts every failure mode into an ActionResult.
type Executor struct {
	collab   Collaborators
	handlers map[core.ActionType]Handler

	logger   logging.Logger
	auditLog *audit.Log
	limiter  *core.ActionLimiter

	httpClient     *http.Client
	webhookTimeout time.Duration
	validateURL    func(rawURL string) error

	// sleep is swapped out in tests to keep delay handling fast.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor constructs an executor with the built-in handler set
// registered. Unknown action kinds therefore surface at construction time:
// anything not registered here (or via Register) is refused at dispatch with
// an unknown_action result.
func NewExecutor(collab Collaborators, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		WebhookTimeout: DefaultWebhookTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.AuditLog == nil {
		opts.AuditLog = audit.NewLog(audit.DefaultCapacity)
	}
	if opts.Limiter == nil {
		opts.Limiter = core.NewActionLimiter(0)
	}
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = DefaultWebhookTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.WebhookTimeout}
	}
	if opts.ValidateURL == nil {
		opts.ValidateURL = security.ValidateWebhookURL
	}

	e := &Executor{
		collab:         collab,
		handlers:       make(map[core.ActionType]Handler),
		logger:         opts.Logger,
		auditLog:       opts.AuditLog,
		limiter:        opts.Limiter,
		httpClient:     opts.HTTPClient,
		webhookTimeout: opts.WebhookTimeout,
		validateURL:    opts.ValidateURL,
		sleep:          sleepCtx,
	}
	e.registerBuiltins()
	return e
}

// Register adds a custom handler. Registering an already-known type is an
// error so handler collisions surface during wiring, not at runtime.
func (e *Executor) Register(t core.ActionType, h Handler) error {
	if _, exists := e.handlers[t]; exists {
		return fmt.Errorf("action handler for %q already registered", t)
	}
	e.handlers[t] = h
	return nil
}

// Run executes the actions of one rule strictly in listed order. Each action
// is awaited to completion before the next starts. A failed action with
// stop_on_error set skips the remaining actions of this rule only; an action
// delay suspends the sequence before the next dispatch. One result is
// returned per attempted action.
func (e *Executor) Run(ctx context.Context, rule core.Rule, ev core.Event, evCtx map[string]any) []core.ActionResult {
	doc, err := json.Marshal(evCtx)
	if err != nil {
		doc = []byte("{}")
	}

	results := make([]core.ActionResult, 0, len(rule.Actions))
	for _, act := range rule.Actions {
		res := e.dispatch(ctx, act, ev, evCtx, doc)
		results = append(results, res)

		if !res.Success {
			e.auditLog.Error("action failed", map[string]any{
				"rule_id":     rule.ID,
				"rule_name":   rule.Name,
				"action_type": string(act.Type),
				"error":       res.Error,
			})
			if act.StopOnError {
				e.logger.Debug("stopping rule after failed action", "rule_id", rule.ID, "action_type", act.Type)
				break
			}
		}

		if act.Delay > 0 {
			if err := e.sleep(ctx, time.Duration(act.Delay)*time.Millisecond); err != nil {
				break
			}
		}
	}
	return results
}

// dispatch runs a single action, converting unknown types, rate limiting,
// handler errors and panics into failure results.
func (e *Executor) dispatch(ctx context.Context, act core.Action, ev core.Event, evCtx map[string]any, doc []byte) (res core.ActionResult) {
	res = core.ActionResult{Type: act.Type}

	defer func() {
		if rec := recover(); rec != nil {
			res.Success = false
			res.Error = fmt.Sprintf("handler panic: %v", rec)
		}
	}()

	handler, ok := e.handlers[act.Type]
	if !ok {
		res.Error = NewActionError(string(act.Type), "unknown action", CodeUnknownAction).Error()
		return res
	}

	if !e.limiter.Allow() {
		res.Error = NewActionError(string(act.Type), "action rate limit exceeded", CodeRateLimited).Error()
		return res
	}

	start := time.Now()
	output, err := handler(ctx, &Request{Action: act, Event: ev, Context: evCtx, doc: doc})
	dur := time.Since(start)

	if err != nil {
		res.Error = err.Error()
		e.logger.Warn("action failed", "action_type", act.Type, "duration", dur, "error", err)
		return res
	}

	res.Success = true
	res.Output = output
	e.logger.Debug("action completed", "action_type", act.Type, "duration", dur)
	return res
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
