package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
	"github.com/hupe1980/automesh/security"
)

// FileStore persists the aggregate as a single JSON document on disk. Writes
// go through a temp file plus rename so a crash mid-write never leaves a
// truncated state file behind.
type FileStore struct {
	path   string
	logger logging.Logger
	mu     sync.Mutex
}

// FileOptions holds configuration overrides passed to NewFileStore.
type FileOptions struct {
	// Logger receives sanitizer diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// NewFileStore creates a store writing to the given path. Parent directories
// are created on first save.
func NewFileStore(path string, optFns ...func(o *FileOptions)) *FileStore {
	opts := FileOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &FileStore{path: path, logger: opts.Logger}
}

// Load reads and sanitizes the persisted state. A missing file yields
// (nil, nil): the engine starts fresh.
func (s *FileStore) Load(_ context.Context) (*core.EngineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state core.EngineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	sanitizeState(&state, s.logger)
	return &state, nil
}

// Save overwrites the state file atomically.
func (s *FileStore) Save(_ context.Context, state core.EngineState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// sanitizeState strips dangerous keys from every stored object that will be
// merged into live state: action parameters, condition values and stats maps
// all originate from storage that an attacker may have reached.
func sanitizeState(state *core.EngineState, logger logging.Logger) {
	for ri := range state.Rules {
		rule := &state.Rules[ri]
		for ai := range rule.Actions {
			rule.Actions[ai].Params = security.SanitizeObject(rule.Actions[ai].Params, logger)
		}
		sanitizeConditions(rule.Conditions, logger)
	}
}

func sanitizeConditions(conds []core.Condition, logger logging.Logger) {
	for i := range conds {
		if m, ok := conds[i].Value.(map[string]any); ok {
			conds[i].Value = security.SanitizeObject(m, logger)
		}
		sanitizeConditions(conds[i].Conditions, logger)
	}
}
