package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError describes why a webhook target or action input was
// rejected. The executor converts it into a failed action result; it is never
// allowed to crash the processing loop.
type ValidationError struct {
	Subject string `json:"subject"` // what was validated, e.g. "webhook url"
	Reason  string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// NewValidationError creates a ValidationError for the given subject.
func NewValidationError(subject, reason string) *ValidationError {
	return &ValidationError{Subject: subject, Reason: reason}
}

// blockedHostnames are literal hostnames that always denote the local machine.
var blockedHostnames = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

// ValidateWebhookURL rejects webhook targets that could be abused for SSRF:
// unparseable URLs, non-HTTP schemes, loopback and unspecified hosts, private
// IPv4 ranges (10/8, 172.16/12, 192.168/16) and the link-local/cloud-metadata
// range 169.254/16.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return NewValidationError("webhook url", fmt.Sprintf("unparseable url: %v", err))
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return NewValidationError("webhook url", fmt.Sprintf("scheme %q is not allowed", u.Scheme))
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return NewValidationError("webhook url", "missing host")
	}
	if _, ok := blockedHostnames[host]; ok {
		return NewValidationError("webhook url", fmt.Sprintf("host %q points at the local machine", host))
	}

	if ip := net.ParseIP(host); ip != nil {
		switch {
		case ip.IsLoopback(), ip.IsUnspecified():
			return NewValidationError("webhook url", fmt.Sprintf("ip %s is a loopback or unspecified address", ip))
		case ip.IsPrivate():
			return NewValidationError("webhook url", fmt.Sprintf("ip %s is in a private range", ip))
		case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
			return NewValidationError("webhook url", fmt.Sprintf("ip %s is link-local (cloud metadata range)", ip))
		}
	}

	return nil
}
