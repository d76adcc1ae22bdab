package core

import (
	"context"
	"time"
)

// Settings is the configuration surface of the engine. All values have safe
// defaults; see DefaultSettings.
type Settings struct {
	// Enabled gates event acceptance. When false, Emit is a no-op and the
	// processing loop stops at its next check.
	Enabled bool `json:"enabled"`

	// MaxQueueSize bounds the event queue. On overflow the oldest event is
	// dropped.
	MaxQueueSize int `json:"max_queue_size"`

	// MaxLogSize bounds the audit log ring buffer.
	MaxLogSize int `json:"max_log_size"`

	// ExecutionDelay is the pause between two processed events.
	ExecutionDelay time.Duration `json:"execution_delay"`

	// MaxActionsPerMinute caps attempted actions per minute across all rules.
	// Zero means unlimited. Actions beyond the cap fail with a rate limit
	// error result.
	MaxActionsPerMinute int `json:"max_actions_per_minute"`

	// EnableParallelExecution is accepted and persisted for compatibility but
	// has no effect: events are always processed one at a time to preserve
	// side-effect ordering.
	EnableParallelExecution bool `json:"enable_parallel_execution"`
}

// DefaultSettings returns the baseline engine configuration.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        true,
		MaxQueueSize:   500,
		MaxLogSize:     1000,
		ExecutionDelay: 100 * time.Millisecond,
	}
}

// Stats aggregates processing counters. TotalEventsProcessed increments once
// per dequeued event regardless of match outcome; TotalActionsExecuted once
// per attempted action; RulesTriggered once per rule whose conditions passed.
type Stats struct {
	TotalEventsProcessed int64            `json:"total_events_processed"`
	TotalActionsExecuted int64            `json:"total_actions_executed"`
	RulesTriggered       map[string]int64 `json:"rules_triggered,omitempty"`
	LastExecution        time.Time        `json:"last_execution,omitzero"`
}

// Clone returns a deep copy so callers can read stats without holding
// engine locks.
func (s Stats) Clone() Stats {
	out := s
	if s.RulesTriggered != nil {
		out.RulesTriggered = make(map[string]int64, len(s.RulesTriggered))
		for k, v := range s.RulesTriggered {
			out.RulesTriggered[k] = v
		}
	}
	return out
}

// LogEntry is one record of the bounded audit log.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
}

// EngineState is the persisted aggregate. It is serialized as a whole with
// overwrite semantics; data volumes are small enough that incremental diffing
// is not worth the complexity.
type EngineState struct {
	Rules    []Rule   `json:"rules"`
	Stats    Stats    `json:"stats"`
	Settings Settings `json:"settings"`
}

// StateStore persists the engine aggregate. Persistence is best-effort: a
// failed Save is logged by the caller and in-memory state remains
// authoritative for the session.
type StateStore interface {
	// Load returns the previously saved state, or nil if none exists.
	Load(ctx context.Context) (*EngineState, error)

	// Save overwrites the stored state.
	Save(ctx context.Context, state EngineState) error
}
