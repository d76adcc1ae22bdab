package condition

import (
	"testing"

	"github.com/hupe1980/automesh/core"
	"github.com/stretchr/testify/assert"
)

func leaf(field string, op core.Operator, value any) core.Condition {
	return core.Condition{Field: field, Operator: op, Value: value}
}

func TestEvaluate_EmptyConditionsAreVacuouslyTrue(t *testing.T) {
	assert.True(t, Evaluate(nil, core.LogicAnd, map[string]any{"x": 1}))
	assert.True(t, Evaluate([]core.Condition{}, core.LogicOr, nil))
}

func TestEvaluate_Operators(t *testing.T) {
	ctx := map[string]any{
		"message": map[string]any{"text": "Qual o PREÇO do plano?"},
		"amount":  "42",
		"score":   7.5,
		"stage":   "negotiation",
		"tags":    []any{},
		"flag":    nil,
	}

	tests := []struct {
		name string
		cond core.Condition
		want bool
	}{
		{"eq numeric coercion", leaf("amount", core.OpEq, 42), true},
		{"eq string", leaf("stage", core.OpEq, "negotiation"), true},
		{"neq", leaf("stage", core.OpNeq, "won"), true},
		{"contains case-insensitive", leaf("message.text", core.OpContains, "preço"), true},
		{"not_contains", leaf("message.text", core.OpNotContains, "refund"), true},
		{"starts_with", leaf("stage", core.OpStartsWith, "NEGO"), true},
		{"ends_with", leaf("stage", core.OpEndsWith, "tion"), true},
		{"greater_than", leaf("score", core.OpGt, 7), true},
		{"greater_than string field", leaf("amount", core.OpGt, 40), true},
		{"less_than false", leaf("score", core.OpLt, 7), false},
		{"gte boundary", leaf("score", core.OpGte, 7.5), true},
		{"lte boundary", leaf("score", core.OpLte, 7.5), true},
		{"regex", leaf("message.text", core.OpRegex, `pre.o`), true},
		{"regex invalid pattern", leaf("message.text", core.OpRegex, `pre(`), false},
		{"in comma list", leaf("stage", core.OpIn, "lead, negotiation, won"), true},
		{"in literal list", leaf("stage", core.OpIn, []any{"lead", "negotiation"}), true},
		{"not_in", leaf("stage", core.OpNotIn, "lost, churned"), true},
		{"is_empty on empty array", leaf("tags", core.OpEmpty, nil), true},
		{"is_empty on null", leaf("flag", core.OpEmpty, nil), true},
		{"is_not_empty", leaf("stage", core.OpNotEmpty, nil), true},
		{"exists", leaf("score", core.OpExists, nil), true},
		{"exists rejects null", leaf("flag", core.OpExists, nil), false},
		{"exists rejects missing", leaf("missing.path", core.OpExists, nil), false},
		{"unknown operator is false", leaf("stage", core.Operator("matches_vibe"), "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate([]core.Condition{tt.cond}, core.LogicAnd, ctx))
		})
	}
}

func TestEvaluate_MissingFieldFailsComparisons(t *testing.T) {
	ctx := map[string]any{"present": "x"}

	assert.False(t, Evaluate([]core.Condition{leaf("absent", core.OpEq, "x")}, core.LogicAnd, ctx))
	assert.False(t, Evaluate([]core.Condition{leaf("absent", core.OpGt, 0)}, core.LogicAnd, ctx))
	assert.True(t, Evaluate([]core.Condition{leaf("absent", core.OpEmpty, nil)}, core.LogicAnd, ctx))
}

func TestEvaluate_Logic(t *testing.T) {
	ctx := map[string]any{"a": 1, "b": 2}

	pass := leaf("a", core.OpEq, 1)
	fail := leaf("b", core.OpEq, 99)

	assert.False(t, Evaluate([]core.Condition{pass, fail}, core.LogicAnd, ctx))
	assert.True(t, Evaluate([]core.Condition{pass, fail}, core.LogicOr, ctx))

	// AND is the default when logic is unspecified.
	assert.False(t, Evaluate([]core.Condition{pass, fail}, "", ctx))
}

func TestEvaluate_NestedGroups(t *testing.T) {
	ctx := map[string]any{
		"sentiment": "negative",
		"priority":  "high",
		"stage":     "lead",
	}

	group := core.Condition{
		Logic: core.LogicOr,
		Conditions: []core.Condition{
			leaf("priority", core.OpEq, "high"),
			leaf("stage", core.OpEq, "won"),
		},
	}

	conds := []core.Condition{
		leaf("sentiment", core.OpEq, "negative"),
		group,
	}

	assert.True(t, Evaluate(conds, core.LogicAnd, ctx))

	// Flip the inner group's members so it fails and AND propagates.
	group.Conditions = []core.Condition{
		leaf("priority", core.OpEq, "low"),
		leaf("stage", core.OpEq, "won"),
	}
	assert.False(t, Evaluate([]core.Condition{leaf("sentiment", core.OpEq, "negative"), group}, core.LogicAnd, ctx))
}

func TestEvaluateDoc_SharedDocument(t *testing.T) {
	doc := []byte(`{"contact":{"name":"Ana","tags":["vip"]},"deal":{"value":1200.50}}`)

	assert.True(t, EvaluateDoc([]core.Condition{leaf("contact.name", core.OpEq, "Ana")}, core.LogicAnd, doc))
	assert.True(t, EvaluateDoc([]core.Condition{leaf("deal.value", core.OpGt, 1000)}, core.LogicAnd, doc))
	assert.True(t, EvaluateDoc([]core.Condition{leaf("contact.tags", core.OpNotEmpty, nil)}, core.LogicAnd, doc))
}
