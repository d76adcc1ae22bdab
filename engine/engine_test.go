package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/automesh/action"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/internal/testutil"
	"github.com/hupe1980/automesh/statestore"
	"github.com/stretchr/testify/assert"
)

func newTestEngine(spy *testutil.SpyCollaborators, optFns ...func(o *Options)) *Engine {
	e := New(func(o *Options) {
		o.DisableSeeding = true
		o.Settings = core.Settings{
			Enabled:      true,
			MaxQueueSize: 500,
			MaxLogSize:   1000,
		}
		o.Collaborators = action.Collaborators{
			Messages:      spy,
			Templates:     spy,
			CRM:           spy,
			Tasks:         spy,
			Notifications: spy,
			Campaigns:     spy,
			AI:            spy,
			Escalations:   spy,
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func flush(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, e.Flush(ctx))
}

func TestEngine_PriceInquiryScenario(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	rule := e.Rules().Create(core.RuleDraft{
		Name:    "Tag price inquiries",
		Trigger: "message:received",
		Conditions: []core.Condition{
			{Field: "content", Operator: core.OpContains, Value: "preço"},
		},
		Actions: []core.Action{
			{Type: core.ActionAddTag, Params: map[string]any{"tag": "interessado_preco"}},
		},
	})

	_, ok := e.Emit("message:received", map[string]any{"content": "Qual o preço?"})
	assert.True(t, ok)
	flush(t, e)

	assert.Len(t, spy.AddedTags, 1)
	assert.Equal(t, "interessado_preco", spy.AddedTags[0].Tag)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.TotalEventsProcessed)
	assert.Equal(t, int64(1), stats.TotalActionsExecuted)
	assert.Equal(t, int64(1), stats.RulesTriggered[rule.ID])
	assert.False(t, stats.LastExecution.IsZero())
}

func TestEngine_NonMatchingEventTriggersNothing(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	rule := e.Rules().Create(core.RuleDraft{
		Name:    "r",
		Trigger: "message:received",
		Conditions: []core.Condition{
			{Field: "content", Operator: core.OpContains, Value: "preço"},
		},
		Actions: []core.Action{
			{Type: core.ActionAddTag, Params: map[string]any{"tag": "x"}},
		},
	})

	e.Emit("message:received", map[string]any{"content": "bom dia"})
	flush(t, e)

	assert.Empty(t, spy.AddedTags)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.TotalEventsProcessed)
	assert.Equal(t, int64(0), stats.TotalActionsExecuted)
	assert.Equal(t, int64(0), stats.RulesTriggered[rule.ID])
}

func TestEngine_DisabledRejectsEvents(t *testing.T) {
	e := newTestEngine(testutil.NewSpyCollaborators(), func(o *Options) {
		o.Settings = core.Settings{Enabled: false, MaxQueueSize: 10, MaxLogSize: 10}
	})
	defer e.Close()

	_, ok := e.Emit("message:received", nil)

	assert.False(t, ok)
	assert.Equal(t, int64(0), e.Stats().TotalEventsProcessed)
}

func TestEngine_ClosedRejectsEvents(t *testing.T) {
	e := newTestEngine(testutil.NewSpyCollaborators())
	assert.NoError(t, e.Close())

	_, ok := e.Emit("message:received", nil)

	assert.False(t, ok)
}

func TestEngine_QueueOverflowDropsOldest(t *testing.T) {
	var processed []string
	var mu sync.Mutex

	e := newTestEngine(testutil.NewSpyCollaborators(), func(o *Options) {
		o.Settings = core.Settings{Enabled: true, MaxQueueSize: 2, MaxLogSize: 10}
	})
	defer e.Close()

	e.On(CallbackEventProcessed, func(cbCtx *CallbackContext) {
		mu.Lock()
		processed = append(processed, cbCtx.Event.Data["n"].(string))
		mu.Unlock()
	})

	// Pause the drain loop by holding an event in a slow rule, then overrun
	// the queue. Simpler: emit while the loop is blocked on the first event.
	block := make(chan struct{})
	assert.NoError(t, e.Executor().Register(core.ActionType("block"), func(ctx context.Context, req *action.Request) (map[string]any, error) {
		<-block
		return nil, nil
	}))
	e.Rules().Create(core.RuleDraft{
		Name:    "blocker",
		Trigger: "blocking",
		Actions: []core.Action{{Type: core.ActionType("block")}},
	})

	e.Emit("blocking", map[string]any{"n": "blocker"})

	// Wait until the blocker is in flight so the queue is empty again.
	assert.Eventually(t, func() bool { return e.QueueLen() == 0 }, time.Second, time.Millisecond)

	e.Emit("plain", map[string]any{"n": "a"})
	e.Emit("plain", map[string]any{"n": "b"})
	e.Emit("plain", map[string]any{"n": "c"}) // overflows, "a" is dropped

	assert.Equal(t, 2, e.QueueLen())
	close(block)
	flush(t, e)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"blocker", "b", "c"}, processed)
}

func TestEngine_PriorityOrdersRuleExecution(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	e.Rules().Create(core.RuleDraft{
		Name: "low", Trigger: "t", Priority: 1,
		Actions: []core.Action{{Type: core.ActionAddTag, Params: map[string]any{"tag": "low"}}},
	})
	e.Rules().Create(core.RuleDraft{
		Name: "high", Trigger: "t", Priority: 10,
		Actions: []core.Action{{Type: core.ActionAddTag, Params: map[string]any{"tag": "high"}}},
	})

	e.Emit("t", nil)
	flush(t, e)

	assert.Len(t, spy.AddedTags, 2)
	assert.Equal(t, "high", spy.AddedTags[0].Tag)
	assert.Equal(t, "low", spy.AddedTags[1].Tag)
}

func TestEngine_EventMetadataAvailableInContext(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	e.Rules().Create(core.RuleDraft{
		Name:    "echo",
		Trigger: "ping",
		Actions: []core.Action{
			{Type: core.ActionSendMessage, Params: map[string]any{"text": "got {{event.type}}"}},
		},
	})

	e.Emit("ping", map[string]any{"chatId": "c1"})
	flush(t, e)

	assert.Len(t, spy.SentMessages, 1)
	assert.Equal(t, "got ping", spy.SentMessages[0].Text)
	assert.Equal(t, "c1", spy.SentMessages[0].ChatID)
}

func TestEngine_CallbacksFireInOrder(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	var mu sync.Mutex
	var seen []CallbackType
	record := func(cbCtx *CallbackContext) {
		mu.Lock()
		seen = append(seen, cbCtx.Type)
		mu.Unlock()
	}
	e.On(CallbackEventEmitted, record)
	e.On(CallbackRuleMatched, record)
	e.On(CallbackActionExecuted, record)
	e.On(CallbackEventProcessed, record)

	e.Rules().Create(core.RuleDraft{
		Name: "r", Trigger: "t",
		Actions: []core.Action{{Type: core.ActionNotify, Params: map[string]any{"title": "x"}}},
	})

	e.Emit("t", nil)
	flush(t, e)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []CallbackType{
		CallbackEventEmitted,
		CallbackRuleMatched,
		CallbackActionExecuted,
		CallbackEventProcessed,
	}, seen)
}

func TestEngine_PanickingCallbackDoesNotStallProcessing(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	e.On(CallbackEventProcessed, func(cbCtx *CallbackContext) { panic("observer bug") })

	e.Rules().Create(core.RuleDraft{
		Name: "r", Trigger: "t",
		Actions: []core.Action{{Type: core.ActionAddTag, Params: map[string]any{"tag": "x"}}},
	})

	e.Emit("t", nil)
	e.Emit("t", nil)
	flush(t, e)

	assert.Len(t, spy.AddedTags, 2)
	assert.Equal(t, int64(2), e.Stats().TotalEventsProcessed)
}

func TestEngine_StatePersistsAcrossRestart(t *testing.T) {
	store := statestore.NewInMemoryStore()
	spy := testutil.NewSpyCollaborators()

	e := newTestEngine(spy, func(o *Options) {
		o.StateStore = store
	})

	rule := e.Rules().Create(core.RuleDraft{
		Name:    "persisted",
		Trigger: "t",
		Actions: []core.Action{{Type: core.ActionAddTag, Params: map[string]any{"tag": "x"}}},
	})
	e.Emit("t", nil)
	flush(t, e)
	assert.NoError(t, e.Close())

	restarted := newTestEngine(spy, func(o *Options) {
		o.StateStore = store
	})
	defer restarted.Close()

	restored, err := restarted.Rules().Get(rule.ID)
	assert.NoError(t, err)
	assert.Equal(t, "persisted", restored.Name)

	stats := restarted.Stats()
	assert.Equal(t, int64(1), stats.TotalEventsProcessed)
	assert.Equal(t, int64(1), stats.RulesTriggered[rule.ID])
}

func TestEngine_SeedsStarterRulesOnce(t *testing.T) {
	store := statestore.NewInMemoryStore()

	e := New(func(o *Options) {
		o.StateStore = store
	})
	seeded := e.Rules().Len()
	assert.Greater(t, seeded, 0)
	assert.NoError(t, e.Close())

	// A restart restores the persisted rules instead of reseeding.
	restarted := New(func(o *Options) {
		o.StateStore = store
	})
	defer restarted.Close()
	assert.Equal(t, seeded, restarted.Rules().Len())
}

func TestEngine_UpdateSettingsAppliesBounds(t *testing.T) {
	e := newTestEngine(testutil.NewSpyCollaborators())
	defer e.Close()

	s := e.Settings()
	s.MaxLogSize = 2
	s.MaxActionsPerMinute = 1
	e.UpdateSettings(s)

	assert.Equal(t, 2, e.Settings().MaxLogSize)

	for i := 0; i < 5; i++ {
		e.AuditLog().Info("entry", nil)
	}
	assert.Equal(t, 2, e.AuditLog().Len())
}

func TestEngine_DisablingStopsProcessingButKeepsQueue(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	s := e.Settings()
	s.Enabled = false
	e.UpdateSettings(s)

	_, ok := e.Emit("t", nil)
	assert.False(t, ok)
}

func TestEngine_RuleMutationsNotifyObservers(t *testing.T) {
	e := newTestEngine(testutil.NewSpyCollaborators())
	defer e.Close()

	var mu sync.Mutex
	changes := 0
	e.On(CallbackRulesChanged, func(cbCtx *CallbackContext) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	rule := e.Rules().Create(core.RuleDraft{Name: "r", Trigger: "t"})
	_, _ = e.Rules().Toggle(rule.ID, false)
	_ = e.Rules().Delete(rule.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, changes)
}

func TestEngine_AuditLogRecordsRuleExecution(t *testing.T) {
	spy := testutil.NewSpyCollaborators()
	e := newTestEngine(spy)
	defer e.Close()

	e.Rules().Create(core.RuleDraft{
		Name: "audited", Trigger: "t",
		Actions: []core.Action{{Type: core.ActionAddTag, Params: map[string]any{"tag": "x"}}},
	})

	e.Emit("t", nil)
	flush(t, e)

	var found bool
	for _, entry := range e.AuditLog().Entries() {
		if entry.Message == "rule executed" && entry.Context["rule_name"] == "audited" {
			found = true
		}
	}
	assert.True(t, found)
}
