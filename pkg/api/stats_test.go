package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no counters yet", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/stats/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body statsResponse
		decodeBody(t, rec, &body)
		require.NotNil(t, body.Stats)
		require.Empty(t, body.Stats)
	})

	t.Run("counters sorted by measure", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, env.records.IncrementCount(ctx, records.MeasureSubmissions, 3))
		require.NoError(t, env.records.IncrementCount(ctx, records.MeasureMatches, 1))
		require.NoError(t, env.records.IncrementCount(ctx, records.MeasureHashes, 2))

		rec := env.do(t, http.MethodGet, "/stats/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body statsResponse
		decodeBody(t, rec, &body)
		require.Equal(t, []statCard{
			{Measure: "hashes", Count: 2},
			{Measure: "matches", Count: 1},
			{Measure: "submissions", Count: 3},
		}, body.Stats)
	})
}
