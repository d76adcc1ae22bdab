package security

import (
	"strings"

	"github.com/hupe1980/automesh/logging"
)

// dangerousKeys are object keys that must never be merged into live state.
// They originate from prototype pollution payloads smuggled through stored
// rules or external input.
var dangerousKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// IsDangerousKey reports whether the key is on the blocklist.
func IsDangerousKey(key string) bool {
	_, ok := dangerousKeys[key]
	return ok
}

// SanitizeObject returns a copy of m with dangerous keys stripped. It recurses
// into nested maps and into slice elements that are maps. Each blocked key is
// logged. A nil map yields nil.
func SanitizeObject(m map[string]any, logger logging.Logger) map[string]any {
	if m == nil {
		return nil
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsDangerousKey(k) {
			logger.Warn("blocked dangerous object key", "key", k)
			continue
		}
		out[k] = sanitizeValue(v, logger)
	}
	return out
}

func sanitizeValue(v any, logger logging.Logger) any {
	switch tv := v.(type) {
	case map[string]any:
		return SanitizeObject(tv, logger)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = sanitizeValue(item, logger)
		}
		return out
	default:
		return v
	}
}

// SanitizeHeaders filters a header map down to well-formed pairs. Dangerous
// keys are dropped, as is any pair whose name or value contains CR, LF or
// other control characters (defends against header/response splitting).
func SanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if IsDangerousKey(name) {
			continue
		}
		if name == "" || hasControlChars(name) || hasControlChars(value) {
			continue
		}
		out[name] = value
	}
	return out
}

func hasControlChars(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r < 0x20 || r == 0x7f
	})
}

// allowedMethods are the HTTP methods honored for webhook actions.
var allowedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
}

// NormalizeMethod upper-cases the method and silently falls back to POST for
// anything outside the whitelist.
func NormalizeMethod(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := allowedMethods[m]; ok {
		return m
	}
	return "POST"
}
