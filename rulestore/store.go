package rulestore

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
)

// ErrRuleNotFound is returned when the referenced rule id does not exist.
var ErrRuleNotFound = errors.New("rule not found")

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives store diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// OnChange is invoked after every successful mutation with the store
	// already re-sorted. The engine hooks persistence and observer
	// notification here. May be nil.
	OnChange func()
}

// Store is a mutex-guarded in-memory rule store. The rule slice is kept
// sorted by priority descending at all times; ties are broken by most recent
// insertion or update.
type Store struct {
	mu     sync.RWMutex
	rules  []core.Rule
	seq    map[string]int64 // ruleID -> last-touched sequence for tie-breaking
	nextSq int64

	logger   logging.Logger
	onChange func()
}

// New constructs an empty rule store with optional overrides.
func New(optFns ...func(o *Options)) *Store {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Store{
		seq:      make(map[string]int64),
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
}

// Create inserts a new rule from a draft. Defaults are applied to unset
// fields: enabled unless explicitly disabled, AND condition logic, priority 0
// and empty condition/action lists. The assigned rule (with id and
// timestamps) is returned.
func (s *Store) Create(draft core.RuleDraft) core.Rule {
	now := time.Now().UTC()

	rule := core.Rule{
		ID:             core.NewID(),
		Name:           draft.Name,
		Description:    draft.Description,
		Enabled:        draft.Enabled == nil || *draft.Enabled,
		Trigger:        draft.Trigger,
		Conditions:     draft.Conditions,
		ConditionLogic: draft.ConditionLogic,
		Actions:        draft.Actions,
		Priority:       draft.Priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rule.ConditionLogic == "" {
		rule.ConditionLogic = core.LogicAnd
	}
	if rule.Conditions == nil {
		rule.Conditions = []core.Condition{}
	}
	if rule.Actions == nil {
		rule.Actions = []core.Action{}
	}

	s.mu.Lock()
	s.rules = append(s.rules, rule)
	s.touchLocked(rule.ID)
	s.sortLocked()
	s.mu.Unlock()

	s.logger.Debug("rule created", "rule_id", rule.ID, "name", rule.Name)
	s.notify()
	return rule
}

// Update shallow-merges the non-nil fields of upd over the stored rule and
// refreshes its UpdatedAt. The rule id is immutable. Returns ErrRuleNotFound
// when the id is unknown.
func (s *Store) Update(id string, upd core.RuleUpdate) (core.Rule, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Rule{}, ErrRuleNotFound
	}

	rule := &s.rules[idx]
	if upd.Name != nil {
		rule.Name = *upd.Name
	}
	if upd.Description != nil {
		rule.Description = *upd.Description
	}
	if upd.Enabled != nil {
		rule.Enabled = *upd.Enabled
	}
	if upd.Trigger != nil {
		rule.Trigger = *upd.Trigger
	}
	if upd.Conditions != nil {
		rule.Conditions = *upd.Conditions
	}
	if upd.ConditionLogic != nil {
		rule.ConditionLogic = *upd.ConditionLogic
	}
	if upd.Actions != nil {
		rule.Actions = *upd.Actions
	}
	if upd.Priority != nil {
		rule.Priority = *upd.Priority
	}
	rule.UpdatedAt = time.Now().UTC()

	s.touchLocked(id)
	s.sortLocked()
	updated := s.rules[s.indexLocked(id)]
	s.mu.Unlock()

	s.logger.Debug("rule updated", "rule_id", id)
	s.notify()
	return updated, nil
}

// Delete removes the rule. Returns ErrRuleNotFound when the id is unknown.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrRuleNotFound
	}
	s.rules = append(s.rules[:idx], s.rules[idx+1:]...)
	delete(s.seq, id)
	s.mu.Unlock()

	s.logger.Debug("rule deleted", "rule_id", id)
	s.notify()
	return nil
}

// Toggle flips the enabled flag. It is sugar over Update.
func (s *Store) Toggle(id string, enabled bool) (core.Rule, error) {
	return s.Update(id, core.RuleUpdate{Enabled: &enabled})
}

// Get returns the rule with the given id.
func (s *Store) Get(id string) (core.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Rule{}, ErrRuleNotFound
	}
	return s.rules[idx], nil
}

// List returns all rules in priority-descending order.
func (s *Store) List() []core.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// FindByTrigger returns the enabled rules reacting to the given event type,
// in priority-descending order.
func (s *Store) FindByTrigger(eventType string) []core.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Rule
	for _, r := range s.rules {
		if r.Enabled && r.Trigger == eventType {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of stored rules.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Replace swaps in a full rule set, e.g. when restoring persisted state.
// Ordering sequences are rebuilt from slice order (earlier = older).
func (s *Store) Replace(rules []core.Rule) {
	s.mu.Lock()
	s.rules = make([]core.Rule, len(rules))
	copy(s.rules, rules)
	s.seq = make(map[string]int64, len(rules))
	s.nextSq = 0
	for i := len(s.rules) - 1; i >= 0; i-- {
		// Persisted order is priority-descending with newest-first ties, so
		// walking backwards restores ascending sequence numbers.
		s.touchLocked(s.rules[i].ID)
	}
	s.sortLocked()
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) touchLocked(id string) {
	s.nextSq++
	s.seq[id] = s.nextSq
}

// sortLocked restores the ordering invariant: priority descending, ties
// broken by most recent insertion/update first.
func (s *Store) sortLocked() {
	sort.SliceStable(s.rules, func(i, j int) bool {
		a, b := s.rules[i], s.rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return s.seq[a.ID] > s.seq[b.ID]
	})
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
