package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
)

// ActionRulesHandler serves CRUD over the rules that decide which action a
// match's labels trigger.
type ActionRulesHandler struct {
	configStore hmaconfig.Store
}

func NewActionRulesHandler(configStore hmaconfig.Store) *ActionRulesHandler {
	return &ActionRulesHandler{configStore: configStore}
}

func (h *ActionRulesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListActionRules)
	r.Post("/", h.CreateActionRule)
	r.Put("/{name}", h.UpdateActionRule)
	r.Delete("/{name}", h.DeleteActionRule)
	return r
}

type actionRulesResponse struct {
	ActionRules []hmaconfig.ActionRule `json:"action_rules"`
}

type actionRuleRequest struct {
	ActionRule hmaconfig.ActionRule `json:"action_rule"`
}

func validateActionRule(rule hmaconfig.ActionRule) string {
	if rule.Name == "" {
		return "action rule name is required"
	}
	if rule.ActionLabel.Value == "" {
		return "action rule action label is required"
	}
	if len(rule.MustHaveLabels) == 0 {
		return "action rule needs at least one must-have label"
	}
	return ""
}

func (h *ActionRulesHandler) ListActionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.configStore.ListActionRules(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	if rules == nil {
		rules = []hmaconfig.ActionRule{}
	}
	render.JSON(w, r, actionRulesResponse{ActionRules: rules})
}

func (h *ActionRulesHandler) CreateActionRule(w http.ResponseWriter, r *http.Request) {
	var req actionRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid action rule request body")
		return
	}
	if msg := validateActionRule(req.ActionRule); msg != "" {
		writeMessage(w, r, http.StatusBadRequest, msg)
		return
	}
	err := h.configStore.CreateActionRule(r.Context(), req.ActionRule)
	if errors.Is(err, store.ErrExists) {
		writeMessage(w, r, http.StatusConflict, "an action rule with that name already exists")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusCreated, "")
}

func (h *ActionRulesHandler) UpdateActionRule(w http.ResponseWriter, r *http.Request) {
	var req actionRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid action rule request body")
		return
	}
	if req.ActionRule.Name != chi.URLParam(r, "name") {
		writeMessage(w, r, http.StatusBadRequest, "action rule name does not match the request path")
		return
	}
	if msg := validateActionRule(req.ActionRule); msg != "" {
		writeMessage(w, r, http.StatusBadRequest, msg)
		return
	}
	err := h.configStore.UpdateActionRule(r.Context(), req.ActionRule)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, r, http.StatusNotFound, "no action rule with that name")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "")
}

func (h *ActionRulesHandler) DeleteActionRule(w http.ResponseWriter, r *http.Request) {
	if err := h.configStore.DeleteActionRule(r.Context(), chi.URLParam(r, "name")); err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "")
}
