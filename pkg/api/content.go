package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

// imageURLExpiry bounds redirects to stored image objects.
const imageURLExpiry = time.Hour

// ContentHandler serves submitted content records, their action history and
// access to the stored bytes. Content ids may contain slashes (storage
// notifications derive them from bucket and key), so the routes are
// wildcards rather than single path params.
type ContentHandler struct {
	recordStore records.Store
	signer      presigner.RequestPresigner
	imageBucket string
	imagePrefix string
}

func NewContentHandler(recordStore records.Store, signer presigner.RequestPresigner, imageBucket string, imagePrefix string) *ContentHandler {
	return &ContentHandler{
		recordStore: recordStore,
		signer:      signer,
		imageBucket: imageBucket,
		imagePrefix: imagePrefix,
	}
}

func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/action-history/*", h.GetActionHistory)
	r.Get("/image/*", h.GetImage)
	r.Get("/*", h.GetContentDetails)
	return r
}

type contentDetailsResponse struct {
	ContentID        string            `json:"content_id"`
	ContentType      string            `json:"content_type"`
	ContentRef       string            `json:"content_ref"`
	ContentRefType   string            `json:"content_ref_type"`
	SubmittedAt      string            `json:"submitted_at"`
	AdditionalFields map[string]string `json:"additional_fields"`
}

func (h *ContentHandler) GetContentDetails(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "*")
	if contentID == "" {
		writeMessage(w, r, http.StatusBadRequest, "content id is required")
		return
	}
	record, err := h.recordStore.GetContent(r.Context(), contentID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	fields := record.AdditionalFields
	if fields == nil {
		fields = map[string]string{}
	}
	render.JSON(w, r, contentDetailsResponse{
		ContentID:        record.ContentID,
		ContentType:      string(record.ContentType),
		ContentRef:       record.Ref,
		ContentRefType:   string(record.RefType),
		SubmittedAt:      record.SubmittedAt.UTC().Format(time.RFC3339),
		AdditionalFields: fields,
	})
}

type actionEventResponse struct {
	ActionLabel string   `json:"action_label"`
	PerformedAt string   `json:"performed_at"`
	ActionRules []string `json:"action_rules"`
}

type actionHistoryResponse struct {
	ActionHistory []actionEventResponse `json:"action_history"`
}

func (h *ContentHandler) GetActionHistory(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "*")
	if contentID == "" {
		writeMessage(w, r, http.StatusBadRequest, "content id is required")
		return
	}
	events, err := h.recordStore.ListActionEvents(r.Context(), contentID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	history := make([]actionEventResponse, 0, len(events))
	for _, event := range events {
		rules := event.ActionRules
		if rules == nil {
			rules = []string{}
		}
		history = append(history, actionEventResponse{
			ActionLabel: event.ActionLabel,
			PerformedAt: event.PerformedAt.UTC().Format(time.RFC3339),
			ActionRules: rules,
		})
	}
	render.JSON(w, r, actionHistoryResponse{ActionHistory: history})
}

// GetImage redirects to the content bytes: a presigned GET for objects in the
// image bucket, or the recorded URL for URL submissions.
func (h *ContentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "*")
	if contentID == "" {
		writeMessage(w, r, http.StatusBadRequest, "content id is required")
		return
	}
	record, err := h.recordStore.GetContent(r.Context(), contentID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	switch record.RefType {
	case records.ContentRefTypeS3Object:
		url, err := h.signer.PresignURL(r.Context(), h.imageBucket, record.Ref, "", imageURLExpiry, presigner.GetObject)
		if err != nil {
			internalError(w, r, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	case records.ContentRefTypeURL:
		http.Redirect(w, r, record.Ref, http.StatusFound)
	default:
		internalError(w, r, errors.New("content record has no readable ref"))
	}
}
