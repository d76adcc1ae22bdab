package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/automesh/core"
)

// SpyCollaborators records every collaborator call the executor makes so
// tests can assert on the produced side effects. All methods are safe for
// concurrent use. Err, when set, is returned from every mutating call.
type SpyCollaborators struct {
	mu sync.Mutex

	Err error

	// GenerateContent is returned from Generate calls.
	GenerateContent string

	// Templates are returned from GetAll.
	Templates []core.MessageTemplate

	SentMessages  []SentMessage
	AddedTags     []TagChange
	RemovedTags   []TagChange
	Upserts       []map[string]any
	DealMoves     []DealMove
	Tasks         []core.Task
	Notifications []core.Notification
	CampaignAdds  []CampaignAdd
	Prompts       []string
	Escalations   []core.Escalation
}

// SentMessage is one recorded SendText call.
type SentMessage struct {
	ChatID string
	Text   string
}

// TagChange is one recorded AddTag or RemoveTag call.
type TagChange struct {
	ContactID string
	Tag       string
}

// DealMove is one recorded UpdateDealStage call.
type DealMove struct {
	DealID  string
	StageID string
}

// CampaignAdd is one recorded AddContact call.
type CampaignAdd struct {
	CampaignID string
	ContactID  string
}

// NewSpyCollaborators returns an empty recording collaborator set.
func NewSpyCollaborators() *SpyCollaborators {
	return &SpyCollaborators{}
}

func (s *SpyCollaborators) SendText(ctx context.Context, chatID, text string) (core.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return core.SendResult{Success: false, Error: s.Err.Error()}, s.Err
	}

	s.SentMessages = append(s.SentMessages, SentMessage{ChatID: chatID, Text: text})

	return core.SendResult{Success: true, MessageID: core.NewID()}, nil
}

func (s *SpyCollaborators) GetAll(ctx context.Context) ([]core.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Templates, s.Err
}

func (s *SpyCollaborators) AddTag(ctx context.Context, contactID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.AddedTags = append(s.AddedTags, TagChange{ContactID: contactID, Tag: tag})

	return nil
}

func (s *SpyCollaborators) RemoveTag(ctx context.Context, contactID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.RemovedTags = append(s.RemovedTags, TagChange{ContactID: contactID, Tag: tag})

	return nil
}

func (s *SpyCollaborators) UpsertContact(ctx context.Context, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Upserts = append(s.Upserts, fields)

	return nil
}

func (s *SpyCollaborators) UpdateDealStage(ctx context.Context, dealID, stageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.DealMoves = append(s.DealMoves, DealMove{DealID: dealID, StageID: stageID})

	return nil
}

func (s *SpyCollaborators) CreateTask(ctx context.Context, task core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Tasks = append(s.Tasks, task)

	return nil
}

func (s *SpyCollaborators) Notify(ctx context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Notifications = append(s.Notifications, n)

	return nil
}

func (s *SpyCollaborators) AddContact(ctx context.Context, campaignID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.CampaignAdds = append(s.CampaignAdds, CampaignAdd{CampaignID: campaignID, ContactID: contactID})

	return nil
}

func (s *SpyCollaborators) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return core.GenerateResponse{}, s.Err
	}

	s.Prompts = append(s.Prompts, req.Prompt)

	return core.GenerateResponse{Content: s.GenerateContent}, nil
}

func (s *SpyCollaborators) Escalate(ctx context.Context, e core.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Escalations = append(s.Escalations, e)

	return nil
}
