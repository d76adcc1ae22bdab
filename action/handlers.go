package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/security"
)

// registerBuiltins wires the built-in action kinds. Called once from
// NewExecutor; duplicates cannot occur here.
func (e *Executor) registerBuiltins() {
	e.handlers[core.ActionSendMessage] = e.handleSendMessage
	e.handlers[core.ActionSendTemplate] = e.handleSendTemplate
	e.handlers[core.ActionAddTag] = e.handleAddTag
	e.handlers[core.ActionRemoveTag] = e.handleRemoveTag
	e.handlers[core.ActionUpsertContact] = e.handleUpsertContact
	e.handlers[core.ActionCreateTask] = e.handleCreateTask
	e.handlers[core.ActionMoveDealStage] = e.handleMoveDealStage
	e.handlers[core.ActionWebhook] = e.handleWebhook
	e.handlers[core.ActionNotify] = e.handleNotify
	e.handlers[core.ActionAddToCampaign] = e.handleAddToCampaign
	e.handlers[core.ActionLogEvent] = e.handleLogEvent
	e.handlers[core.ActionWait] = e.handleWait
	e.handlers[core.ActionAIGenerate] = e.handleAIGenerate
	e.handlers[core.ActionEscalate] = e.handleEscalate
}

func (e *Executor) handleSendMessage(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Messages == nil {
		return nil, NewActionError(string(req.Action.Type), "message sender not configured", CodeNotConfigured)
	}
	chatID := req.StringOr("chat_id", "chatId")
	text := req.String("text")
	if text == "" {
		return nil, NewActionError(string(req.Action.Type), "missing text param", CodeMissingParam)
	}

	res, err := e.collab.Messages.SendText(ctx, chatID, text)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if !res.Success {
		return nil, NewActionError(string(req.Action.Type), res.Error, CodeCollaborator)
	}
	return map[string]any{"message_id": res.MessageID}, nil
}

func (e *Executor) handleSendTemplate(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Templates == nil || e.collab.Messages == nil {
		return nil, NewActionError(string(req.Action.Type), "template store or message sender not configured", CodeNotConfigured)
	}

	templateID := req.String("template_id")
	trigger := req.String("trigger")
	if templateID == "" && trigger == "" {
		return nil, NewActionError(string(req.Action.Type), "missing template_id or trigger param", CodeMissingParam)
	}

	templates, err := e.collab.Templates.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var tmpl *core.MessageTemplate
	for i := range templates {
		if (templateID != "" && templates[i].ID == templateID) ||
			(templateID == "" && strings.EqualFold(templates[i].Trigger, trigger)) {
			tmpl = &templates[i]
			break
		}
	}
	if tmpl == nil {
		return nil, NewActionError(string(req.Action.Type), "no matching template", CodeMissingParam)
	}

	chatID := req.StringOr("chat_id", "chatId")
	text := req.render(tmpl.Response)
	res, err := e.collab.Messages.SendText(ctx, chatID, text)
	if err != nil {
		return nil, fmt.Errorf("send template: %w", err)
	}
	if !res.Success {
		return nil, NewActionError(string(req.Action.Type), res.Error, CodeCollaborator)
	}
	return map[string]any{"template_id": tmpl.ID, "message_id": res.MessageID}, nil
}

func (e *Executor) handleAddTag(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.CRM == nil {
		return nil, NewActionError(string(req.Action.Type), "crm not configured", CodeNotConfigured)
	}
	tag := req.String("tag")
	if tag == "" {
		return nil, NewActionError(string(req.Action.Type), "missing tag param", CodeMissingParam)
	}
	contactID := req.StringOr("contact_id", "contact.id")
	if err := e.collab.CRM.AddTag(ctx, contactID, tag); err != nil {
		return nil, fmt.Errorf("add tag: %w", err)
	}
	return map[string]any{"tag": tag, "contact_id": contactID}, nil
}

func (e *Executor) handleRemoveTag(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.CRM == nil {
		return nil, NewActionError(string(req.Action.Type), "crm not configured", CodeNotConfigured)
	}
	tag := req.String("tag")
	if tag == "" {
		return nil, NewActionError(string(req.Action.Type), "missing tag param", CodeMissingParam)
	}
	contactID := req.StringOr("contact_id", "contact.id")
	if err := e.collab.CRM.RemoveTag(ctx, contactID, tag); err != nil {
		return nil, fmt.Errorf("remove tag: %w", err)
	}
	return map[string]any{"tag": tag, "contact_id": contactID}, nil
}

func (e *Executor) handleUpsertContact(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.CRM == nil {
		return nil, NewActionError(string(req.Action.Type), "crm not configured", CodeNotConfigured)
	}
	fields := req.Map("fields")
	if fields == nil {
		fields = req.Action.Params
	}
	fields = security.SanitizeObject(fields, e.logger)
	if err := e.collab.CRM.UpsertContact(ctx, fields); err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}
	return map[string]any{"fields": len(fields)}, nil
}

func (e *Executor) handleCreateTask(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Tasks == nil {
		return nil, NewActionError(string(req.Action.Type), "task store not configured", CodeNotConfigured)
	}
	title := req.String("title")
	if title == "" {
		return nil, NewActionError(string(req.Action.Type), "missing title param", CodeMissingParam)
	}
	task := core.Task{
		Title:       title,
		Description: req.String("description"),
		Priority:    req.String("priority"),
		ChatID:      req.StringOr("chat_id", "chatId"),
	}
	if err := e.collab.Tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return map[string]any{"title": title}, nil
}

func (e *Executor) handleMoveDealStage(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.CRM == nil {
		return nil, NewActionError(string(req.Action.Type), "crm not configured", CodeNotConfigured)
	}
	dealID := req.StringOr("deal_id", "deal.id")
	stageID := req.String("stage_id")
	if dealID == "" || stageID == "" {
		return nil, NewActionError(string(req.Action.Type), "missing deal_id or stage_id param", CodeMissingParam)
	}
	if err := e.collab.CRM.UpdateDealStage(ctx, dealID, stageID); err != nil {
		return nil, fmt.Errorf("move deal stage: %w", err)
	}
	return map[string]any{"deal_id": dealID, "stage_id": stageID}, nil
}

func (e *Executor) handleNotify(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Notifications == nil {
		return nil, NewActionError(string(req.Action.Type), "notification sink not configured", CodeNotConfigured)
	}
	n := core.Notification{
		Title:   req.String("title"),
		Message: req.String("message"),
	}
	if n.Title == "" && n.Message == "" {
		return nil, NewActionError(string(req.Action.Type), "missing title and message params", CodeMissingParam)
	}
	if err := e.collab.Notifications.Notify(ctx, n); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	return nil, nil
}

func (e *Executor) handleAddToCampaign(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Campaigns == nil {
		return nil, NewActionError(string(req.Action.Type), "campaign queue not configured", CodeNotConfigured)
	}
	campaignID := req.String("campaign_id")
	if campaignID == "" {
		return nil, NewActionError(string(req.Action.Type), "missing campaign_id param", CodeMissingParam)
	}
	contactID := req.StringOr("contact_id", "contact.id")
	if err := e.collab.Campaigns.AddContact(ctx, campaignID, contactID); err != nil {
		return nil, fmt.Errorf("add to campaign: %w", err)
	}
	return map[string]any{"campaign_id": campaignID, "contact_id": contactID}, nil
}

func (e *Executor) handleLogEvent(_ context.Context, req *Request) (map[string]any, error) {
	level := req.String("level")
	if level == "" {
		level = "info"
	}
	message := req.String("message")
	if message == "" {
		return nil, NewActionError(string(req.Action.Type), "missing message param", CodeMissingParam)
	}
	e.auditLog.Append(level, message, map[string]any{
		"event_id":   req.Event.ID,
		"event_type": req.Event.Type,
	})
	return nil, nil
}

func (e *Executor) handleWait(ctx context.Context, req *Request) (map[string]any, error) {
	ms := req.Int64("duration")
	if ms <= 0 {
		ms = req.Int64("duration_ms")
	}
	if ms <= 0 {
		return nil, NewActionError(string(req.Action.Type), "missing duration param", CodeMissingParam)
	}
	if err := e.sleep(ctx, time.Duration(ms)*time.Millisecond); err != nil {
		return nil, fmt.Errorf("wait interrupted: %w", err)
	}
	return map[string]any{"waited_ms": ms}, nil
}

func (e *Executor) handleAIGenerate(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.AI == nil {
		return nil, NewActionError(string(req.Action.Type), "ai generator not configured", CodeNotConfigured)
	}
	prompt := req.String("prompt")
	if prompt == "" {
		return nil, NewActionError(string(req.Action.Type), "missing prompt param", CodeMissingParam)
	}

	resp, err := e.collab.AI.Generate(ctx, core.GenerateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("ai generate: %w", err)
	}

	output := map[string]any{"content": resp.Content}
	if req.Bool("send") {
		if e.collab.Messages == nil {
			return nil, NewActionError(string(req.Action.Type), "message sender not configured", CodeNotConfigured)
		}
		chatID := req.StringOr("chat_id", "chatId")
		sendRes, err := e.collab.Messages.SendText(ctx, chatID, resp.Content)
		if err != nil {
			return nil, fmt.Errorf("send generated text: %w", err)
		}
		output["message_id"] = sendRes.MessageID
	}
	return output, nil
}

func (e *Executor) handleEscalate(ctx context.Context, req *Request) (map[string]any, error) {
	if e.collab.Escalations == nil {
		return nil, NewActionError(string(req.Action.Type), "escalation sink not configured", CodeNotConfigured)
	}

	contact, _ := req.Context["contact"].(map[string]any)
	esc := core.Escalation{
		ChatID:    req.StringOr("chat_id", "chatId"),
		Contact:   contact,
		Reason:    req.String("reason"),
		Priority:  req.String("priority"),
		Timestamp: time.Now().UTC(),
	}
	if esc.Reason == "" {
		esc.Reason = "rule escalation"
	}
	if err := e.collab.Escalations.Escalate(ctx, esc); err != nil {
		return nil, fmt.Errorf("escalate: %w", err)
	}

	output := map[string]any{"reason": esc.Reason}
	if req.Bool("create_task") && e.collab.Tasks != nil {
		task := core.Task{
			Title:       "Escalated conversation",
			Description: esc.Reason,
			Priority:    "urgent",
			ChatID:      esc.ChatID,
		}
		if err := e.collab.Tasks.CreateTask(ctx, task); err != nil {
			return nil, fmt.Errorf("create escalation task: %w", err)
		}
		output["task_created"] = true
	}
	return output, nil
}
