package rulestore

import "github.com/hupe1980/automesh/core"

// seedRules are the starter templates offered to new installations. They ship
// disabled so nothing fires until a user opts in.
var seedRules = []core.RuleDraft{
	{
		Name:        "Tag price inquiries",
		Description: "Tags the contact when an inbound message asks about pricing.",
		Trigger:     "message:received",
		Conditions: []core.Condition{
			{Field: "content", Operator: core.OpContains, Value: "preço"},
		},
		ConditionLogic: core.LogicAnd,
		Actions: []core.Action{
			{Type: core.ActionAddTag, Params: map[string]any{"tag": "interessado_preco"}},
		},
		Priority: 10,
	},
	{
		Name:        "Escalate negative sentiment",
		Description: "Hands the conversation to a human when sentiment turns negative.",
		Trigger:     "sentiment:detected",
		Conditions: []core.Condition{
			{Field: "sentiment", Operator: core.OpEq, Value: "negative"},
		},
		ConditionLogic: core.LogicAnd,
		Actions: []core.Action{
			{Type: core.ActionEscalate, Params: map[string]any{
				"reason":      "negative sentiment detected",
				"priority":    "high",
				"create_task": true,
			}},
		},
		Priority: 50,
	},
	{
		Name:           "Welcome new contacts",
		Description:    "Sends a greeting when a conversation starts.",
		Trigger:        "conversation:started",
		ConditionLogic: core.LogicAnd,
		Actions: []core.Action{
			{Type: core.ActionSendMessage, Params: map[string]any{
				"text": "Olá {{contact.name}}! Como podemos ajudar?",
			}},
		},
		Priority: 0,
	},
	{
		Name:        "Notify on won deal",
		Description: "Raises a notification when a deal reaches the won stage.",
		Trigger:     "deal:stage_changed",
		Conditions: []core.Condition{
			{Field: "stage", Operator: core.OpEq, Value: "won"},
		},
		ConditionLogic: core.LogicAnd,
		Actions: []core.Action{
			{Type: core.ActionNotify, Params: map[string]any{
				"title":   "Deal won",
				"message": "Deal {{deal.title}} moved to won.",
			}},
			{Type: core.ActionLogEvent, Params: map[string]any{
				"level":   "info",
				"message": "deal won: {{deal.title}}",
			}},
		},
		Priority: 20,
	},
}

// Seed inserts the starter rules, all disabled, exactly once: it is a no-op
// unless the store is empty, so repeated startups never duplicate seeds.
// Returns the number of rules inserted.
func (s *Store) Seed() int {
	if s.Len() > 0 {
		return 0
	}
	disabled := false
	for _, r := range seedRules {
		r.Enabled = &disabled
		s.Create(r)
	}
	return len(seedRules)
}
