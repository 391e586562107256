package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
)

// ActionsHandler serves CRUD over action performers, the webhook targets an
// action label resolves to.
type ActionsHandler struct {
	configStore hmaconfig.Store
}

func NewActionsHandler(configStore hmaconfig.Store) *ActionsHandler {
	return &ActionsHandler{configStore: configStore}
}

func (h *ActionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListActions)
	r.Post("/", h.CreateAction)
	r.Put("/{name}", h.UpdateAction)
	r.Delete("/{name}", h.DeleteAction)
	return r
}

type actionsResponse struct {
	Actions []hmaconfig.ActionPerformer `json:"actions"`
}

type actionRequest struct {
	Action hmaconfig.ActionPerformer `json:"action"`
}

func validateActionPerformer(performer hmaconfig.ActionPerformer) string {
	if performer.Name == "" {
		return "action name is required"
	}
	if performer.URL == "" {
		return "action url is required"
	}
	return ""
}

func (h *ActionsHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	performers, err := h.configStore.ListActionPerformers(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	if performers == nil {
		performers = []hmaconfig.ActionPerformer{}
	}
	render.JSON(w, r, actionsResponse{Actions: performers})
}

func (h *ActionsHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid action request body")
		return
	}
	if msg := validateActionPerformer(req.Action); msg != "" {
		writeMessage(w, r, http.StatusBadRequest, msg)
		return
	}
	err := h.configStore.CreateActionPerformer(r.Context(), req.Action)
	if errors.Is(err, store.ErrExists) {
		writeMessage(w, r, http.StatusConflict, "an action with that name already exists")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusCreated, "")
}

func (h *ActionsHandler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid action request body")
		return
	}
	if req.Action.Name != chi.URLParam(r, "name") {
		writeMessage(w, r, http.StatusBadRequest, "action name does not match the request path")
		return
	}
	if msg := validateActionPerformer(req.Action); msg != "" {
		writeMessage(w, r, http.StatusBadRequest, msg)
		return
	}
	err := h.configStore.UpdateActionPerformer(r.Context(), req.Action)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, r, http.StatusNotFound, "no action with that name")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "")
}

func (h *ActionsHandler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	if err := h.configStore.DeleteActionPerformer(r.Context(), chi.URLParam(r, "name")); err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "")
}
