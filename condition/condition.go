// Package condition implements the recursive boolean-tree evaluator rules are
// matched with. A leaf predicate resolves a dot-separated field path against
// the event context and applies one operator from a fixed table; groups
// combine children under AND/OR semantics and may nest to arbitrary depth.
//
// Evaluation never errors: malformed input (bad regex, non-numeric operands
// for numeric operators, unknown operators) evaluates to false.
package condition

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/automesh/core"
)

// Evaluate runs the condition list against a context object under the given
// logic. An empty condition list is vacuously true.
func Evaluate(conds []core.Condition, logic core.Logic, ctx map[string]any) bool {
	doc, err := json.Marshal(ctx)
	if err != nil {
		return false
	}
	return EvaluateDoc(conds, logic, doc)
}

// EvaluateDoc is Evaluate over a pre-encoded JSON context document. The engine
// encodes the event context once per event and reuses it across rules.
func EvaluateDoc(conds []core.Condition, logic core.Logic, doc []byte) bool {
	if len(conds) == 0 {
		return true
	}

	if logic == core.LogicOr {
		for _, c := range conds {
			if evalNode(c, doc) {
				return true
			}
		}
		return false
	}

	// AND is the default for unset or unknown logic values.
	for _, c := range conds {
		if !evalNode(c, doc) {
			return false
		}
	}
	return true
}

func evalNode(c core.Condition, doc []byte) bool {
	if c.IsGroup() {
		return EvaluateDoc(c.Conditions, c.Logic, doc)
	}
	field := gjson.GetBytes(doc, c.Field)
	return evalLeaf(field, c.Operator, c.Value)
}
