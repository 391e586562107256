package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
)

// DatasetsHandler serves the signal datasets view: collaboration configs
// joined with stats about their fetched signal data files.
type DatasetsHandler struct {
	configStore hmaconfig.Store
	signalData  SignalDataStore
}

func NewDatasetsHandler(configStore hmaconfig.Store, signalData SignalDataStore) *DatasetsHandler {
	return &DatasetsHandler{configStore: configStore, signalData: signalData}
}

func (h *DatasetsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDatasets)
	r.Put("/{privacyGroupID}", h.UpdateDataset)
	return r
}

type datasetSummary struct {
	PrivacyGroupID  string `json:"privacy_group_id"`
	Name            string `json:"name"`
	FetcherActive   bool   `json:"fetcher_active"`
	MatcherActive   bool   `json:"matcher_active"`
	WritebackActive bool   `json:"write_back"`
	InUse           bool   `json:"in_use"`
	SignalCount     int64  `json:"signal_count"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type datasetsResponse struct {
	ThreatExchangeDatasets []datasetSummary `json:"threat_exchange_datasets"`
}

func (h *DatasetsHandler) summarize(r *http.Request, collab hmaconfig.CollaborationConfig) (datasetSummary, error) {
	summary := datasetSummary{
		PrivacyGroupID:  collab.PrivacyGroupID,
		Name:            collab.Name,
		FetcherActive:   collab.FetcherActive,
		MatcherActive:   collab.MatcherActive,
		WritebackActive: collab.WritebackActive,
		InUse:           collab.InUse,
	}
	stats, err := h.signalData.FileStats(r.Context(), collab.PrivacyGroupID)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing fetched yet for this privacy group.
		return summary, nil
	}
	if err != nil {
		return summary, fmt.Errorf("reading signal file stats for %s: %w", collab.PrivacyGroupID, err)
	}
	summary.SignalCount = stats.SignalCount
	if !stats.UpdatedAt.IsZero() {
		summary.UpdatedAt = stats.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return summary, nil
}

func (h *DatasetsHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	collabs, err := h.configStore.ListCollaborations(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	datasets := make([]datasetSummary, 0, len(collabs))
	for _, collab := range collabs {
		summary, err := h.summarize(r, collab)
		if err != nil {
			internalError(w, r, err)
			return
		}
		datasets = append(datasets, summary)
	}
	render.JSON(w, r, datasetsResponse{ThreatExchangeDatasets: datasets})
}

type updateDatasetRequest struct {
	FetcherActive   bool `json:"fetcher_active"`
	MatcherActive   bool `json:"matcher_active"`
	WritebackActive bool `json:"write_back"`
}

// UpdateDataset flips the pipeline flags of one collaboration. Identity
// fields are not editable here; collaborations are created by the sync
// tooling.
func (h *DatasetsHandler) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	var req updateDatasetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid dataset update body")
		return
	}

	privacyGroupID := chi.URLParam(r, "privacyGroupID")
	collab, err := h.configStore.GetCollaboration(r.Context(), privacyGroupID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	collab.FetcherActive = req.FetcherActive
	collab.MatcherActive = req.MatcherActive
	collab.WritebackActive = req.WritebackActive
	if err := h.configStore.PutCollaboration(r.Context(), collab); err != nil {
		internalError(w, r, err)
		return
	}

	summary, err := h.summarize(r, collab)
	if err != nil {
		internalError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}
