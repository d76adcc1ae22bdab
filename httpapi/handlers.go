package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/rulestore"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"enabled":  h.engine.Settings().Enabled,
		"rules":    h.engine.Rules().Len(),
		"queueLen": h.engine.QueueLen(),
	})
}

func (h *Handler) handleEmitEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Type == "" {
		respondError(w, http.StatusBadRequest, "type is required", nil)
		return
	}

	ev, accepted := h.engine.Emit(req.Type, req.Data)
	if !accepted {
		respondJSON(w, http.StatusAccepted, map[string]any{
			"accepted": false,
		})

		return
	}

	h.logger.Debug("event emitted via api", "eventID", ev.ID, "type", ev.Type)

	respondJSON(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"event":    ev,
	})
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"rules": h.engine.Rules().List(),
	})
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var draft core.RuleDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if draft.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if draft.Trigger == "" {
		respondError(w, http.StatusBadRequest, "trigger is required", nil)
		return
	}

	rule := h.engine.Rules().Create(draft)

	respondJSON(w, http.StatusCreated, rule)
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.engine.Rules().Get(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var upd core.RuleUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule, err := h.engine.Rules().Update(chi.URLParam(r, "ruleID"), upd)
	if err != nil {
		if errors.Is(err, rulestore.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, "rule not found", err)
			return
		}

		respondError(w, http.StatusInternalServerError, "failed to update rule", err)

		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Rules().Delete(chi.URLParam(r, "ruleID")); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule, err := h.engine.Rules().Toggle(chi.URLParam(r, "ruleID"), req.Enabled)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": h.engine.AuditLog().Entries(),
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Settings())
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.engine.UpdateSettings(settings)

	respondJSON(w, http.StatusOK, h.engine.Settings())
}
