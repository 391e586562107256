package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

// defaultMatchListLimit bounds the unfiltered match listing the review UI
// polls.
const defaultMatchListLimit = 100

// MatchesHandler serves the match records the matcher stage writes, and
// accepts reviewer opinion changes on them.
type MatchesHandler struct {
	recordStore records.Store
	writebacks  WritebackQueue
}

func NewMatchesHandler(recordStore records.Store, writebacks WritebackQueue) *MatchesHandler {
	return &MatchesHandler{recordStore: recordStore, writebacks: writebacks}
}

func (h *MatchesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListMatches)
	r.Post("/request-signal-opinion-change", h.RequestSignalOpinionChange)
	// Content ids contain slashes, so the details route is a wildcard rather
	// than a path parameter.
	r.Get("/*", h.GetMatchDetails)
	return r
}

type matchSummary struct {
	ContentID            string `json:"content_id"`
	SignalID             string `json:"signal_id"`
	SignalSource         string `json:"signal_source"`
	MatchedAt            string `json:"matched_at"`
	PendingOpinionChange string `json:"pending_opinion_change,omitempty"`
}

type matchDetail struct {
	matchSummary
	SignalHash string `json:"signal_hash"`
}

type matchSummariesResponse struct {
	MatchSummaries []matchSummary `json:"match_summaries"`
}

type matchDetailsResponse struct {
	MatchDetails []matchDetail `json:"match_details"`
}

func summarizeMatch(match records.MatchRecord) matchSummary {
	return matchSummary{
		ContentID:            match.ContentID,
		SignalID:             match.SignalID,
		SignalSource:         match.SignalSource,
		MatchedAt:            match.MatchedAt.UTC().Format(time.RFC3339),
		PendingOpinionChange: string(match.PendingOpinionChange),
	}
}

func (h *MatchesHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit := defaultMatchListLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			writeMessage(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	matches, err := h.recordStore.RecentMatches(r.Context(), limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	summaries := make([]matchSummary, 0, len(matches))
	for _, match := range matches {
		summaries = append(summaries, summarizeMatch(match))
	}
	render.JSON(w, r, matchSummariesResponse{MatchSummaries: summaries})
}

func (h *MatchesHandler) GetMatchDetails(w http.ResponseWriter, r *http.Request) {
	matches, err := h.recordStore.ListMatches(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	details := make([]matchDetail, 0, len(matches))
	for _, match := range matches {
		details = append(details, matchDetail{
			matchSummary: summarizeMatch(match),
			SignalHash:   match.SignalHash,
		})
	}
	render.JSON(w, r, matchDetailsResponse{MatchDetails: details})
}

func validOpinionChange(change records.OpinionChange) bool {
	switch change {
	case records.OpinionChangeMarkTruePositive,
		records.OpinionChangeMarkFalsePositive,
		records.OpinionChangeRemoveOpinion:
		return true
	}
	return false
}

type opinionChangeResponse struct {
	Success bool `json:"success"`
}

// RequestSignalOpinionChange marks the match with the reviewer's requested
// opinion and, when a writeback queue is configured, enqueues the change for
// delivery back to the signal source.
func (h *MatchesHandler) RequestSignalOpinionChange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	contentID := query.Get("content_id")
	signalID := query.Get("signal_q")
	signalSource := query.Get("signal_source")
	change := records.OpinionChange(query.Get("opinion_change"))

	if contentID == "" || signalID == "" || signalSource == "" {
		writeMessage(w, r, http.StatusBadRequest, "content_id, signal_q and signal_source are required")
		return
	}
	if !validOpinionChange(change) {
		writeMessage(w, r, http.StatusBadRequest, "unrecognized opinion_change")
		return
	}

	err := h.recordStore.SetPendingOpinionChange(r.Context(), contentID, signalSource, signalID, change)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, r, http.StatusNotFound, "no match for that content and signal")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	if h.writebacks != nil {
		err := h.writebacks.Queue(r.Context(), messages.WritebackMessage{
			WritebackID:   uuid.NewString(),
			ContentID:     contentID,
			SignalID:      signalID,
			SignalSource:  signalSource,
			OpinionChange: string(change),
			RequestedAt:   time.Now().UTC(),
		})
		if err != nil {
			internalError(w, r, err)
			return
		}
	}

	render.JSON(w, r, opinionChangeResponse{Success: true})
}
