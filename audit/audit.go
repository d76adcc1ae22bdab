// Package audit provides the bounded execution log the engine and the
// log_event action write to. The log is a ring: once the configured capacity
// is reached the oldest entries are silently discarded, so sustained load can
// never grow it without bound.
package audit

import (
	"sync"
	"time"

	"github.com/hupe1980/automesh/core"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 1000

// Log is a concurrency-safe bounded execution log.
type Log struct {
	mu      sync.RWMutex
	entries []core.LogEntry
	cap     int
}

// NewLog creates a log bounded to the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{cap: capacity}
}

// Append records an entry, evicting the oldest when the log is full.
func (l *Log) Append(level, message string, context map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, core.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Context:   context,
	})
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// Info appends an info-level entry.
func (l *Log) Info(message string, context map[string]any) {
	l.Append("info", message, context)
}

// Warn appends a warn-level entry.
func (l *Log) Warn(message string, context map[string]any) {
	l.Append("warn", message, context)
}

// Error appends an error-level entry.
func (l *Log) Error(message string, context map[string]any) {
	l.Append("error", message, context)
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []core.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// SetCapacity re-bounds the log, evicting oldest entries if needed.
func (l *Log) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cap = capacity
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}
