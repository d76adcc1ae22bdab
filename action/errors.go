package action

import "fmt"

// ActionError represents a categorized failure inside an action handler. The
// executor converts it (like any other handler error) into a failed
// ActionResult; it never escapes the processing loop.
type ActionError struct {
	Type    string `json:"type"`              // action type that failed
	Message string `json:"message"`           // error message
	Code    string `json:"code"`              // error code for categorization
	Details any    `json:"details,omitempty"` // additional error details
}

func (e *ActionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("action error [%s] in %s: %s", e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("action error in %s: %s", e.Type, e.Message)
}

// NewActionError creates a new ActionError with the specified details.
func NewActionError(actionType, message, code string) *ActionError {
	return &ActionError{Type: actionType, Message: message, Code: code}
}

// Well-known error codes surfaced in failure results.
const (
	// CodeUnknownAction marks dispatches of unregistered action types.
	CodeUnknownAction = "unknown_action"
	// CodeMissingParam marks handlers invoked without a required parameter.
	CodeMissingParam = "missing_param"
	// CodeCollaborator marks failures of an injected collaborator call.
	CodeCollaborator = "collaborator_error"
	// CodeNotConfigured marks handlers whose collaborator was not injected.
	CodeNotConfigured = "collaborator_not_configured"
	// CodeRateLimited marks actions rejected by the per-minute cap.
	CodeRateLimited = "rate_limited"
	// CodeTimeout marks webhook calls aborted by their deadline.
	CodeTimeout = "timeout"
)
