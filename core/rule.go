package core

import "time"

// Logic selects how the conditions of a group (or of a rule's top-level
// condition list) are combined.
type Logic string

const (
	// LogicAnd requires every condition to pass.
	LogicAnd Logic = "AND"
	// LogicOr requires at least one condition to pass.
	LogicOr Logic = "OR"
)

// Operator identifies a leaf condition predicate. The operator set is fixed;
// rules cannot embed arbitrary expressions.
type Operator string

const (
	// OpEq is loosely-coerced equality.
	OpEq Operator = "eq"
	// OpNeq is loosely-coerced inequality.
	OpNeq Operator = "neq"
	// OpContains is a case-insensitive substring test.
	OpContains Operator = "contains"
	// OpNotContains negates OpContains.
	OpNotContains Operator = "not_contains"
	// OpStartsWith is a case-insensitive prefix test.
	OpStartsWith Operator = "starts_with"
	// OpEndsWith is a case-insensitive suffix test.
	OpEndsWith Operator = "ends_with"
	// OpGt is a numeric greater-than comparison.
	OpGt Operator = "gt"
	// OpLt is a numeric less-than comparison.
	OpLt Operator = "lt"
	// OpGte is a numeric greater-or-equal comparison.
	OpGte Operator = "gte"
	// OpLte is a numeric less-or-equal comparison.
	OpLte Operator = "lte"
	// OpRegex is a case-insensitive pattern match. Invalid patterns evaluate
	// to false rather than erroring.
	OpRegex Operator = "regex"
	// OpIn tests membership in a list or comma-separated string.
	OpIn Operator = "in"
	// OpNotIn negates OpIn.
	OpNotIn Operator = "not_in"
	// OpEmpty is true for empty strings, empty arrays and missing values.
	OpEmpty Operator = "empty"
	// OpNotEmpty negates OpEmpty.
	OpNotEmpty Operator = "not_empty"
	// OpExists is true unless the field is missing or null.
	OpExists Operator = "exists"
)

// Condition is one node of a recursive boolean tree. A leaf carries Field,
// Operator and Value; a group carries child Conditions combined under Logic.
// Trees may nest to arbitrary depth.
type Condition struct {
	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`

	Conditions []Condition `json:"conditions,omitempty"`
	Logic      Logic       `json:"logic,omitempty"`
}

// IsGroup reports whether the condition is a group node.
func (c Condition) IsGroup() bool { return len(c.Conditions) > 0 || c.Operator == "" }

// ActionType identifies the handler an action is dispatched to.
type ActionType string

const (
	// ActionSendMessage sends a plain text message to a chat.
	ActionSendMessage ActionType = "send_message"
	// ActionSendTemplate sends a message looked up from the template store.
	ActionSendTemplate ActionType = "send_template"
	// ActionAddTag attaches a CRM tag to a contact.
	ActionAddTag ActionType = "add_tag"
	// ActionRemoveTag removes a CRM tag from a contact.
	ActionRemoveTag ActionType = "remove_tag"
	// ActionUpsertContact creates or updates a CRM contact record.
	ActionUpsertContact ActionType = "upsert_contact"
	// ActionCreateTask creates a task in the task store.
	ActionCreateTask ActionType = "create_task"
	// ActionMoveDealStage moves a CRM deal to another pipeline stage.
	ActionMoveDealStage ActionType = "move_deal_stage"
	// ActionWebhook performs an outbound HTTP call.
	ActionWebhook ActionType = "webhook"
	// ActionNotify raises a user-facing notification.
	ActionNotify ActionType = "notify"
	// ActionAddToCampaign enqueues a contact into a campaign.
	ActionAddToCampaign ActionType = "add_to_campaign"
	// ActionLogEvent writes an entry to the audit log.
	ActionLogEvent ActionType = "log_event"
	// ActionWait suspends the action sequence for a duration.
	ActionWait ActionType = "wait"
	// ActionAIGenerate produces text through the AI generator collaborator.
	ActionAIGenerate ActionType = "ai_generate"
	// ActionEscalate hands the conversation over to a human.
	ActionEscalate ActionType = "escalate"
)

// Action is a single side-effecting operation within a rule. Actions of one
// rule execute strictly in listed order.
type Action struct {
	Type   ActionType     `json:"type"`
	Params map[string]any `json:"params,omitempty"`

	// StopOnError skips the remaining actions of the owning rule when this
	// action fails. Other matching rules still run.
	StopOnError bool `json:"stop_on_error,omitempty"`

	// Delay suspends execution for the given number of milliseconds after
	// this action before the next one is dispatched.
	Delay int64 `json:"delay,omitempty"`
}

// ActionResult records the outcome of one action dispatch. Handlers never
// propagate raw panics or errors past the executor; every dispatch yields a
// result with a Success flag.
type ActionResult struct {
	Type    ActionType     `json:"type"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
}

// Rule is a named, prioritized binding of a trigger event type, a condition
// tree and an ordered action list. Rules are owned exclusively by the rule
// store and mutated only through its CRUD operations.
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`

	// Trigger is the event type this rule reacts to.
	Trigger string `json:"trigger"`

	Conditions     []Condition `json:"conditions"`
	ConditionLogic Logic       `json:"condition_logic"`
	Actions        []Action    `json:"actions"`

	// Priority orders evaluation; higher priorities run first.
	Priority int `json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RuleDraft is the input to rule creation. Enabled is a pointer so an
// explicit false can be distinguished from an omitted value: new rules are
// enabled unless explicitly disabled.
type RuleDraft struct {
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Enabled        *bool       `json:"enabled,omitempty"`
	Trigger        string      `json:"trigger"`
	Conditions     []Condition `json:"conditions,omitempty"`
	ConditionLogic Logic       `json:"condition_logic,omitempty"`
	Actions        []Action    `json:"actions,omitempty"`
	Priority       int         `json:"priority,omitempty"`
}

// RuleUpdate carries a partial rule mutation. Nil fields are left untouched;
// the rule ID is immutable and therefore not represented here.
type RuleUpdate struct {
	Name           *string      `json:"name,omitempty"`
	Description    *string      `json:"description,omitempty"`
	Enabled        *bool        `json:"enabled,omitempty"`
	Trigger        *string      `json:"trigger,omitempty"`
	Conditions     *[]Condition `json:"conditions,omitempty"`
	ConditionLogic *Logic       `json:"condition_logic,omitempty"`
	Actions        *[]Action    `json:"actions,omitempty"`
	Priority       *int         `json:"priority,omitempty"`
}
