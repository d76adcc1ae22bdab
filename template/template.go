// Package template resolves {{dot.path}} placeholders against a context
// object. It exists so rule authors can reference event payload fields in
// action parameters (message bodies, webhook URLs, task titles) without a
// full templating language.
package template

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// placeholderRe matches {{ dot.separated.path }} with optional inner spaces.
var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*\}\}`)

// Interpolate replaces every {{dot.path}} occurrence in text with the value
// resolved from ctx. A path that does not resolve leaves the placeholder
// verbatim, so authoring errors stay visible in the rendered output.
func Interpolate(text string, ctx map[string]any) string {
	doc, err := json.Marshal(ctx)
	if err != nil {
		return text
	}
	return InterpolateDoc(text, doc)
}

// InterpolateDoc is Interpolate over a pre-encoded JSON context document.
// The engine encodes the event context once and reuses it across all
// templates of an event.
func InterpolateDoc(text string, doc []byte) string {
	if !strings.Contains(text, "{{") { // fast path: no placeholders
		return text
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		path := placeholderRe.FindStringSubmatch(match)[1]
		res := gjson.GetBytes(doc, path)
		if !res.Exists() {
			return match
		}
		return renderValue(res)
	})
}

// renderValue formats a resolved value. Objects and arrays render as compact
// JSON; scalars as their natural string form.
func renderValue(res gjson.Result) string {
	if res.IsObject() || res.IsArray() {
		return res.Raw
	}
	if res.Type == gjson.Null {
		return "null"
	}
	return res.String()
}
