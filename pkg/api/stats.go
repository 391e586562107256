package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

// StatsHandler serves the pipeline counters kept in the datastore's stats
// partition.
type StatsHandler struct {
	recordStore records.Store
}

func NewStatsHandler(recordStore records.Store) *StatsHandler {
	return &StatsHandler{recordStore: recordStore}
}

func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	return r
}

type statCard struct {
	Measure string `json:"measure"`
	Count   int64  `json:"count"`
}

type statsResponse struct {
	Stats []statCard `json:"stats"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.recordStore.GetCounts(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	stats := make([]statCard, 0, len(counts))
	for measure, count := range counts {
		stats = append(stats, statCard{Measure: string(measure), Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Measure < stats[j].Measure })
	render.JSON(w, r, statsResponse{Stats: stats})
}
