package action

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/automesh/security"
)

// maxWebhookResponseBytes caps how much of a webhook response is read back
// into the action result.
const maxWebhookResponseBytes = 64 * 1024

// handleWebhook performs an outbound HTTP call. The target URL is validated
// against SSRF, headers are sanitized, the method is normalized to the
// whitelist and the whole call runs under a hard deadline so the processing
// loop can never block indefinitely on a collaborator endpoint.
func (e *Executor) handleWebhook(ctx context.Context, req *Request) (map[string]any, error) {
	rawURL := req.String("url")
	if rawURL == "" {
		return nil, NewActionError(string(req.Action.Type), "missing url param", CodeMissingParam)
	}
	if err := e.validateURL(rawURL); err != nil {
		return nil, err
	}

	method := security.NormalizeMethod(req.String("method"))
	headers := security.SanitizeHeaders(stringMap(req.Map("headers")))

	var body io.Reader
	if method != http.MethodGet {
		payload := req.Map("payload")
		if payload == nil {
			payload = map[string]any{
				"event": map[string]any{
					"id":        req.Event.ID,
					"type":      req.Event.Type,
					"timestamp": req.Event.Timestamp,
				},
				"data": req.Event.Data,
			}
		} else {
			payload = interpolatePayload(payload, req)
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode webhook payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.webhookTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	dur := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, NewActionError(string(req.Action.Type),
				fmt.Sprintf("webhook timeout after %s", e.webhookTimeout), CodeTimeout)
		}
		return nil, fmt.Errorf("webhook call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))

	e.logger.Debug("webhook call completed", "url", rawURL, "method", method,
		"status", resp.StatusCode, "duration", dur)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewActionError(string(req.Action.Type),
			fmt.Sprintf("webhook returned status %d", resp.StatusCode), CodeCollaborator)
	}

	return map[string]any{
		"status": resp.StatusCode,
		"body":   string(respBody),
	}, nil
}

// interpolatePayload renders {{dot.path}} placeholders in every string value
// of the payload, recursing into nested objects and arrays.
func interpolatePayload(payload map[string]any, req *Request) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = interpolateValue(v, req)
	}
	return out
}

func interpolateValue(v any, req *Request) any {
	switch tv := v.(type) {
	case string:
		return req.render(tv)
	case map[string]any:
		return interpolatePayload(tv, req)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = interpolateValue(item, req)
		}
		return out
	default:
		return v
	}
}

// stringMap narrows a JSON object to string-valued pairs; non-string values
// are formatted, nested shapes dropped.
func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64, int, int64, bool:
			out[k] = fmt.Sprintf("%v", tv)
		}
	}
	return out
}
