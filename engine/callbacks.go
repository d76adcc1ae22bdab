package engine

import (
	"sync"

	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
)

// CallbackType defines the lifecycle points where observers can hook into the
// engine without modifying core logic.
type CallbackType string

const (
	// CallbackEventEmitted is triggered after an event is accepted into the
	// queue. Use for UI refreshes or metrics collection.
	CallbackEventEmitted CallbackType = "event_emitted"

	// CallbackEventProcessed is triggered after an event has been fully
	// processed, including all matching rules and their actions.
	CallbackEventProcessed CallbackType = "event_processed"

	// CallbackRuleMatched is triggered when a rule's conditions pass, before
	// its actions run.
	CallbackRuleMatched CallbackType = "rule_matched"

	// CallbackActionExecuted is triggered after each attempted action,
	// successful or not.
	CallbackActionExecuted CallbackType = "action_executed"

	// CallbackRulesChanged is triggered after any rule store mutation.
	CallbackRulesChanged CallbackType = "rules_changed"

	// CallbackError is triggered when the processing loop recovers from an
	// internal failure.
	CallbackError CallbackType = "error"
)

// CallbackContext provides the information available at a callback point.
// Fields are populated depending on the callback type; unused ones are nil.
type CallbackContext struct {
	Type   CallbackType
	Event  *core.Event
	Rule   *core.Rule
	Result *core.ActionResult
	Err    error
}

// Callback is an observer hook. Callbacks run synchronously inside the
// processing loop; a panicking callback is recovered and logged like any
// other loop failure, so observers cannot stall event processing.
type Callback func(cbCtx *CallbackContext)

// callbackRegistry stores callbacks per lifecycle point.
type callbackRegistry struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{callbacks: make(map[CallbackType][]Callback)}
}

func (r *callbackRegistry) add(t CallbackType, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[t] = append(r.callbacks[t], cb)
}

func (r *callbackRegistry) fire(logger logging.Logger, cbCtx *CallbackContext) {
	r.mu.RLock()
	cbs := r.callbacks[cbCtx.Type]
	r.mu.RUnlock()

	for _, cb := range cbs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("callback panicked", "callback_type", cbCtx.Type, "panic", rec)
				}
			}()
			cb(cbCtx)
		}()
	}
}
