package main

import (
	"context"

	"github.com/hupe1980/automesh/action"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/logging"
)

// logCollaborators returns a collaborator set that records every side effect
// through the logger instead of calling real backends. It keeps a standalone
// `automesh serve` fully functional for trying out rules; production
// deployments embed the engine and supply their own implementations.
func logCollaborators(logger logging.Logger) action.Collaborators {
	sink := &logSink{logger: logger}

	return action.Collaborators{
		Messages:      sink,
		Templates:     sink,
		CRM:           sink,
		Tasks:         sink,
		Notifications: sink,
		Campaigns:     sink,
		Escalations:   sink,
	}
}

type logSink struct {
	logger logging.Logger
}

func (s *logSink) SendText(ctx context.Context, chatID, text string) (core.SendResult, error) {
	s.logger.Info("send message", "chatID", chatID, "text", text)
	return core.SendResult{Success: true, MessageID: core.NewID()}, nil
}

func (s *logSink) GetAll(ctx context.Context) ([]core.MessageTemplate, error) {
	return nil, nil
}

func (s *logSink) AddTag(ctx context.Context, contactID, tag string) error {
	s.logger.Info("add tag", "contactID", contactID, "tag", tag)
	return nil
}

func (s *logSink) RemoveTag(ctx context.Context, contactID, tag string) error {
	s.logger.Info("remove tag", "contactID", contactID, "tag", tag)
	return nil
}

func (s *logSink) UpsertContact(ctx context.Context, fields map[string]any) error {
	s.logger.Info("upsert contact", "fields", fields)
	return nil
}

func (s *logSink) UpdateDealStage(ctx context.Context, dealID, stageID string) error {
	s.logger.Info("move deal stage", "dealID", dealID, "stageID", stageID)
	return nil
}

func (s *logSink) CreateTask(ctx context.Context, task core.Task) error {
	s.logger.Info("create task", "title", task.Title, "priority", task.Priority)
	return nil
}

func (s *logSink) Notify(ctx context.Context, n core.Notification) error {
	s.logger.Info("notify", "title", n.Title, "message", n.Message)
	return nil
}

func (s *logSink) AddContact(ctx context.Context, campaignID, contactID string) error {
	s.logger.Info("add to campaign", "campaignID", campaignID, "contactID", contactID)
	return nil
}

func (s *logSink) Escalate(ctx context.Context, e core.Escalation) error {
	s.logger.Warn("escalation", "chatID", e.ChatID, "reason", e.Reason, "priority", e.Priority)
	return nil
}
