package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestExecutor(spy *testutil.SpyCollaborators, optFns ...func(o *Options)) *Executor {
	collab := Collaborators{
		Messages:      spy,
		Templates:     spy,
		CRM:           spy,
		Tasks:         spy,
		Notifications: spy,
		Campaigns:     spy,
		AI:            spy,
		Escalations:   spy,
	}
	e := NewExecutor(collab, optFns...)
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func runOne(t *testing.T, e *Executor, act core.Action, evCtx map[string]any) core.ActionResult {
	t.Helper()

	rule := testutil.NewRuleBuilder().ActionFull(act).Build()
	ev := core.NewEvent("message:received", nil)

	results := e.Run(context.Background(), rule, ev, evCtx)
	assert.Len(t, results, 1)
	return results[0]
}

func TestExecutor_SendMessageInterpolates(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{
		Type:   core.ActionSendMessage,
		Params: map[string]any{"text": "Olá {{contact.name}}!"},
	}, map[string]any{
		"chatId":  "chat-1",
		"contact": map[string]any{"name": "Ana"},
	})

	assert.True(t, res.Success)
	assert.Len(t, spy.SentMessages, 1)
	assert.Equal(t, "chat-1", spy.SentMessages[0].ChatID)
	assert.Equal(t, "Olá Ana!", spy.SentMessages[0].Text)
}

func TestExecutor_MissingParamFails(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{Type: core.ActionAddTag, Params: map[string]any{}}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing tag param")
	assert.Empty(t, spy.AddedTags)
}

func TestExecutor_NilCollaboratorFailsGracefully(t *testing.T) {
	e := NewExecutor(Collaborators{})

	res := runOne(t, e, core.Action{
		Type:   core.ActionSendMessage,
		Params: map[string]any{"text": "hi"},
	}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not configured")
}

func TestExecutor_UnknownActionTypeFails(t *testing.T) {
	e := newTestExecutor(testutil.NewSpyCollaborators())

	res := runOne(t, e, core.Action{Type: core.ActionType("teleport")}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown action")
}

func TestExecutor_StopOnErrorSkipsRemaining(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	rule := testutil.NewRuleBuilder().
		ActionFull(core.Action{Type: core.ActionAddTag, Params: map[string]any{}, StopOnError: true}).
		Action(core.ActionSendMessage, map[string]any{"text": "never sent"}).
		Build()

	results := e.Run(context.Background(), rule, core.NewEvent("t", nil), nil)

	assert.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Empty(t, spy.SentMessages)
}

func TestExecutor_UnknownTypeWithStopOnErrorSkipsRemaining(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	rule := testutil.NewRuleBuilder().
		ActionFull(core.Action{Type: core.ActionType("teleport"), StopOnError: true}).
		Action(core.ActionSendMessage, map[string]any{"text": "never sent"}).
		Build()

	results := e.Run(context.Background(), rule, core.NewEvent("t", nil), nil)

	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "unknown action")
	assert.Empty(t, spy.SentMessages)
}

func TestExecutor_FailureWithoutStopOnErrorContinues(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	rule := testutil.NewRuleBuilder().
		Action(core.ActionAddTag, map[string]any{}).
		Action(core.ActionSendMessage, map[string]any{"text": "still sent"}).
		Build()

	results := e.Run(context.Background(), rule, core.NewEvent("t", nil), nil)

	assert.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Len(t, spy.SentMessages, 1)
}

func TestExecutor_PanicBecomesFailureResult(t *testing.T) {
	e := newTestExecutor(testutil.NewSpyCollaborators())

	err := e.Register(core.ActionType("explode"), func(ctx context.Context, req *Request) (map[string]any, error) {
		panic("boom")
	})
	assert.NoError(t, err)

	res := runOne(t, e, core.Action{Type: core.ActionType("explode")}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "handler panic")
}

func TestExecutor_RegisterRejectsDuplicates(t *testing.T) {
	e := newTestExecutor(testutil.NewSpyCollaborators())

	err := e.Register(core.ActionSendMessage, func(ctx context.Context, req *Request) (map[string]any, error) {
		return nil, nil
	})

	assert.Error(t, err)
}

func TestExecutor_RateLimiter(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy, func(o *Options) {
		o.Limiter = core.NewActionLimiter(1)
	})

	rule := testutil.NewRuleBuilder().
		Action(core.ActionSendMessage, map[string]any{"text": "first"}).
		Action(core.ActionSendMessage, map[string]any{"text": "second"}).
		Build()

	results := e.Run(context.Background(), rule, core.NewEvent("t", nil), nil)

	assert.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "rate limit")
	assert.Len(t, spy.SentMessages, 1)
}

func TestExecutor_EscalateWithTask(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{
		Type: core.ActionEscalate,
		Params: map[string]any{
			"reason":      "negative sentiment",
			"priority":    "high",
			"create_task": true,
		},
	}, map[string]any{
		"chatId":  "chat-9",
		"contact": map[string]any{"name": "Ana"},
	})

	assert.True(t, res.Success)
	assert.Len(t, spy.Escalations, 1)
	assert.Equal(t, "chat-9", spy.Escalations[0].ChatID)
	assert.Equal(t, "negative sentiment", spy.Escalations[0].Reason)
	assert.Len(t, spy.Tasks, 1)
	assert.Equal(t, "urgent", spy.Tasks[0].Priority)
}

func TestExecutor_SendTemplateByTrigger(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	spy.Templates = []core.MessageTemplate{
		{ID: "tpl-1", Trigger: "greeting", Response: "Olá {{contact.name}}!"},
	}
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{
		Type:   core.ActionSendTemplate,
		Params: map[string]any{"trigger": "greeting"},
	}, map[string]any{
		"chatId":  "chat-1",
		"contact": map[string]any{"name": "Ana"},
	})

	assert.True(t, res.Success)
	assert.Len(t, spy.SentMessages, 1)
	assert.Equal(t, "Olá Ana!", spy.SentMessages[0].Text)
}

func TestExecutor_AIGenerateAndSend(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	spy.GenerateContent = "generated reply"
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{
		Type:   core.ActionAIGenerate,
		Params: map[string]any{"prompt": "Reply to {{contact.name}}", "send": true},
	}, map[string]any{
		"chatId":  "chat-1",
		"contact": map[string]any{"name": "Ana"},
	})

	assert.True(t, res.Success)
	assert.Equal(t, []string{"Reply to Ana"}, spy.Prompts)
	assert.Len(t, spy.SentMessages, 1)
	assert.Equal(t, "generated reply", spy.SentMessages[0].Text)
	assert.Equal(t, "generated reply", res.Output["content"])
}

func TestExecutor_CollaboratorErrorSurfaces(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	spy.Err = errors.New("crm offline")
	e := newTestExecutor(spy)

	res := runOne(t, e, core.Action{
		Type:   core.ActionAddTag,
		Params: map[string]any{"tag": "vip"},
	}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "crm offline")
}

func TestExecutor_LogEventWritesAudit(t *testing.T) {
	e := newTestExecutor(testutil.NewSpyCollaborators())

	res := runOne(t, e, core.Action{
		Type:   core.ActionLogEvent,
		Params: map[string]any{"level": "warn", "message": "deal won: {{deal.title}}"},
	}, map[string]any{
		"deal": map[string]any{"title": "Acme"},
	})

	assert.True(t, res.Success)

	entries := e.auditLog.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "deal won: Acme", entries[0].Message)
}
