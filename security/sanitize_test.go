package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeObject(t *testing.T) {
	in := map[string]any{
		"name":      "Ana",
		"__proto__": map[string]any{"polluted": true},
		"nested": map[string]any{
			"constructor": "bad",
			"keep":        "yes",
		},
		"list": []any{
			map[string]any{"prototype": "bad", "ok": 1},
			"scalar",
		},
	}

	out := SanitizeObject(in, nil)

	assert.Equal(t, "Ana", out["name"])
	assert.NotContains(t, out, "__proto__")

	nested := out["nested"].(map[string]any)
	assert.NotContains(t, nested, "constructor")
	assert.Equal(t, "yes", nested["keep"])

	list := out["list"].([]any)
	item := list[0].(map[string]any)
	assert.NotContains(t, item, "prototype")
	assert.Equal(t, 1, item["ok"])

	// Input is not mutated.
	assert.Contains(t, in, "__proto__")
}

func TestSanitizeObject_Nil(t *testing.T) {
	assert.Nil(t, SanitizeObject(nil, nil))
}

func TestSanitizeHeaders(t *testing.T) {
	in := map[string]string{
		"Authorization": "Bearer token",
		"X-Split":       "a\r\nSet-Cookie: evil",
		"Bad\nName":     "v",
		"__proto__":     "v",
		"":              "v",
		"X-Tab":         "has\ttab",
	}

	out := SanitizeHeaders(in)

	assert.Equal(t, map[string]string{"Authorization": "Bearer token"}, out)
}

func TestNormalizeMethod(t *testing.T) {
	assert.Equal(t, "GET", NormalizeMethod("get"))
	assert.Equal(t, "DELETE", NormalizeMethod(" delete "))
	assert.Equal(t, "POST", NormalizeMethod("TRACE"))
	assert.Equal(t, "POST", NormalizeMethod(""))
	assert.Equal(t, "POST", NormalizeMethod("PATCH"))
}

func TestIsDangerousKey(t *testing.T) {
	assert.True(t, IsDangerousKey("__proto__"))
	assert.True(t, IsDangerousKey("constructor"))
	assert.True(t, IsDangerousKey("prototype"))
	assert.False(t, IsDangerousKey("name"))
}
