package condition

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/automesh/core"
)

// evalLeaf applies one operator from the fixed table. field carries the
// resolved context value; an absent path yields a non-existent result, which
// is distinct from a present null.
func evalLeaf(field gjson.Result, op core.Operator, want any) bool {
	switch op {
	case core.OpEq:
		return looseEqual(field, want)
	case core.OpNeq:
		return !looseEqual(field, want)
	case core.OpContains:
		return strings.Contains(lowerString(field), strings.ToLower(toString(want)))
	case core.OpNotContains:
		return !strings.Contains(lowerString(field), strings.ToLower(toString(want)))
	case core.OpStartsWith:
		return strings.HasPrefix(lowerString(field), strings.ToLower(toString(want)))
	case core.OpEndsWith:
		return strings.HasSuffix(lowerString(field), strings.ToLower(toString(want)))
	case core.OpGt:
		return compareNumeric(field, want, func(a, b float64) bool { return a > b })
	case core.OpLt:
		return compareNumeric(field, want, func(a, b float64) bool { return a < b })
	case core.OpGte:
		return compareNumeric(field, want, func(a, b float64) bool { return a >= b })
	case core.OpLte:
		return compareNumeric(field, want, func(a, b float64) bool { return a <= b })
	case core.OpRegex:
		re, err := regexp.Compile("(?i)" + toString(want))
		if err != nil {
			return false
		}
		return re.MatchString(field.String())
	case core.OpIn:
		return inList(field, want)
	case core.OpNotIn:
		return !inList(field, want)
	case core.OpEmpty:
		return isEmpty(field)
	case core.OpNotEmpty:
		return !isEmpty(field)
	case core.OpExists:
		return field.Exists() && field.Type != gjson.Null
	default:
		return false
	}
}

// looseEqual compares with numeric coercion first, string comparison second,
// mirroring the loosely-typed equality rule authors expect ("5" equals 5).
func looseEqual(field gjson.Result, want any) bool {
	if !field.Exists() {
		return want == nil
	}
	if field.Type == gjson.Null {
		return want == nil
	}
	fn, fok := numericValue(field)
	wn, wok := parseNumber(want)
	if fok && wok {
		return fn == wn
	}
	return field.String() == toString(want)
}

func compareNumeric(field gjson.Result, want any, cmp func(a, b float64) bool) bool {
	fn, fok := numericValue(field)
	wn, wok := parseNumber(want)
	if !fok || !wok {
		return false
	}
	return cmp(fn, wn)
}

// numericValue coerces the field to a float where it plausibly represents a
// number. Non-numeric strings do not coerce.
func numericValue(field gjson.Result) (float64, bool) {
	switch field.Type {
	case gjson.Number:
		return field.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(field.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	default:
		return 0, false
	}
}

func parseNumber(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case bool:
		if tv {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// inList tests list membership. The wanted value may be a literal list or a
// comma-separated string; string items are trimmed per item. There is no
// escaping for commas inside items.
func inList(field gjson.Result, want any) bool {
	for _, item := range listItems(want) {
		if looseEqual(field, item) {
			return true
		}
	}
	return false
}

func listItems(want any) []any {
	switch tv := want.(type) {
	case []any:
		return tv
	case []string:
		out := make([]any, len(tv))
		for i, s := range tv {
			out[i] = strings.TrimSpace(s)
		}
		return out
	case string:
		parts := strings.Split(tv, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	case nil:
		return nil
	default:
		return []any{tv}
	}
}

// isEmpty is string-empty and array-empty aware; missing and null values
// count as empty.
func isEmpty(field gjson.Result) bool {
	if !field.Exists() || field.Type == gjson.Null {
		return true
	}
	if field.IsArray() {
		return len(field.Array()) == 0
	}
	return field.String() == ""
}

func lowerString(field gjson.Result) string {
	return strings.ToLower(field.String())
}

func toString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case bool:
		return strconv.FormatBool(tv)
	default:
		b, err := json.Marshal(tv)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
