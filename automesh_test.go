package automesh

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/automesh/action"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAutoMesh_EndToEnd(t *testing.T) {
	spy := testutil.NewSpyCollaborators()

	mesh := New(func(o *Options) {
		o.DisableSeeding = true
		o.Collaborators = action.Collaborators{
			Messages: spy,
			CRM:      spy,
		}
	})
	defer mesh.Close()

	rule := mesh.Rules().Create(core.RuleDraft{
		Name:    "greet",
		Trigger: "conversation:started",
		Actions: []core.Action{
			{Type: core.ActionSendMessage, Params: map[string]any{"text": "Olá {{contact.name}}!"}},
		},
	})

	_, ok := mesh.Emit("conversation:started", map[string]any{
		"chatId":  "c1",
		"contact": map[string]any{"name": "Ana"},
	})
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, mesh.Flush(ctx))

	assert.Len(t, spy.SentMessages, 1)
	assert.Equal(t, "Olá Ana!", spy.SentMessages[0].Text)
	assert.Equal(t, int64(1), mesh.Stats().RulesTriggered[rule.ID])
}

func TestAutoMesh_DefaultsSeedStarterRules(t *testing.T) {
	mesh := New()
	defer mesh.Close()

	assert.Greater(t, mesh.Rules().Len(), 0)
	for _, r := range mesh.Rules().List() {
		assert.False(t, r.Enabled)
	}
}
