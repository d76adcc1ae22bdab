package core

import (
	"context"
	"time"
)

// SendResult reports the outcome of a message delivery attempt.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MessageSender delivers outbound text messages to a chat. Delivery mechanics
// (transport, retries, rendering) are the collaborator's concern.
type MessageSender interface {
	SendText(ctx context.Context, chatID, text string) (SendResult, error)
}

// MessageTemplate is a canned response keyed by id and trigger.
type MessageTemplate struct {
	ID       string `json:"id"`
	Trigger  string `json:"trigger"`
	Response string `json:"response"`
}

// TemplateStore exposes the canned responses available to the send_template
// action.
type TemplateStore interface {
	GetAll(ctx context.Context) ([]MessageTemplate, error)
}

// CRM manages contact and deal records on behalf of the engine.
type CRM interface {
	AddTag(ctx context.Context, contactID, tag string) error
	RemoveTag(ctx context.Context, contactID, tag string) error
	UpsertContact(ctx context.Context, fields map[string]any) error
	UpdateDealStage(ctx context.Context, dealID, stageID string) error
}

// Task is a unit of human follow-up work created by the create_task and
// escalate actions.
type Task struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	ChatID      string     `json:"chat_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// TaskStore persists tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task Task) error
}

// Notification is a user-facing message surfaced outside the chat transcript.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NotificationSink receives user notifications.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// CampaignQueue accepts contacts into outbound campaigns.
type CampaignQueue interface {
	AddContact(ctx context.Context, campaignID, contactID string) error
}

// GenerateRequest is the input to an AI text generation call.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the output of an AI text generation call.
type GenerateResponse struct {
	Content string `json:"content"`
}

// AIGenerator produces text from a prompt. Implementations wrap a concrete
// provider; see the aigen subpackages.
type AIGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Escalation hands a conversation over to a human operator.
type Escalation struct {
	ChatID    string         `json:"chat_id"`
	Contact   map[string]any `json:"contact,omitempty"`
	Reason    string         `json:"reason"`
	Priority  string         `json:"priority,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EscalationSink receives escalation records.
type EscalationSink interface {
	Escalate(ctx context.Context, e Escalation) error
}
