package testutil

import (
	"time"

	"github.com/hupe1980/automesh/core"
)

// RuleBuilder provides a fluent helper for constructing rules in tests.
// Example:
//
//	rule := NewRuleBuilder().Trigger("message_received").
//		Condition("message.text", core.OpContains, "hello").
//		Action(core.ActionSendMessage, map[string]any{"message": "hi"}).
//		Build()
//
// Chain only the parts you need; sensible defaults are applied.
type RuleBuilder struct {
	id         string
	name       string
	trigger    string
	enabled    bool
	priority   int
	logic      core.Logic
	conditions []core.Condition
	actions    []core.Action
}

// NewRuleBuilder creates a builder for an enabled rule named "test rule".
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{name: "test rule", trigger: "message_received", enabled: true}
}

// ID overrides the auto-generated rule ID (chainable).
func (b *RuleBuilder) ID(id string) *RuleBuilder { b.id = id; return b }

// Name sets the rule name (chainable).
func (b *RuleBuilder) Name(n string) *RuleBuilder { b.name = n; return b }

// Trigger sets the event type the rule reacts to (chainable).
func (b *RuleBuilder) Trigger(t string) *RuleBuilder { b.trigger = t; return b }

// Disabled marks the rule as disabled (chainable).
func (b *RuleBuilder) Disabled() *RuleBuilder { b.enabled = false; return b }

// Priority sets the rule priority (chainable).
func (b *RuleBuilder) Priority(p int) *RuleBuilder { b.priority = p; return b }

// Logic sets the top-level condition combinator (chainable).
func (b *RuleBuilder) Logic(l core.Logic) *RuleBuilder { b.logic = l; return b }

// Condition appends a leaf condition (chainable).
func (b *RuleBuilder) Condition(field string, op core.Operator, value any) *RuleBuilder {
	b.conditions = append(b.conditions, core.Condition{Field: field, Operator: op, Value: value})
	return b
}

// GroupCondition appends a nested condition group (chainable).
func (b *RuleBuilder) GroupCondition(logic core.Logic, conditions ...core.Condition) *RuleBuilder {
	b.conditions = append(b.conditions, core.Condition{Logic: logic, Conditions: conditions})
	return b
}

// Action appends an action (chainable).
func (b *RuleBuilder) Action(t core.ActionType, params map[string]any) *RuleBuilder {
	b.actions = append(b.actions, core.Action{Type: t, Params: params})
	return b
}

// ActionFull appends an action with stop-on-error and delay control (chainable).
func (b *RuleBuilder) ActionFull(a core.Action) *RuleBuilder {
	b.actions = append(b.actions, a)
	return b
}

// Build assembles the rule.
func (b *RuleBuilder) Build() core.Rule {
	id := b.id
	if id == "" {
		id = core.NewID()
	}

	now := time.Now().UTC()

	return core.Rule{
		ID:             id,
		Name:           b.name,
		Enabled:        b.enabled,
		Trigger:        b.trigger,
		Conditions:     b.conditions,
		ConditionLogic: b.logic,
		Actions:        b.actions,
		Priority:       b.priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Draft assembles a rule draft suitable for rulestore.Create.
func (b *RuleBuilder) Draft() core.RuleDraft {
	enabled := b.enabled

	return core.RuleDraft{
		Name:           b.name,
		Enabled:        &enabled,
		Trigger:        b.trigger,
		Conditions:     b.conditions,
		ConditionLogic: b.logic,
		Actions:        b.actions,
		Priority:       b.priority,
	}
}
