package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

func TestGetContentDetails(t *testing.T) {
	env := newTestEnv(t)
	submittedAt := time.Date(2023, 4, 12, 9, 30, 0, 0, time.UTC)
	require.NoError(t, env.records.PutContent(context.Background(), records.ContentRecord{
		ContentID:   "partner-bucket/images/cat.jpg",
		ContentType: records.ContentTypePhoto,
		RefType:     records.ContentRefTypeURL,
		Ref:         "https://partner-bucket.example/images/cat.jpg",
		SubmittedAt: submittedAt,
	}))

	t.Run("existing content", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/partner-bucket/images/cat.jpg", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body contentDetailsResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "partner-bucket/images/cat.jpg", body.ContentID)
		require.Equal(t, "PHOTO", body.ContentType)
		require.Equal(t, "https://partner-bucket.example/images/cat.jpg", body.ContentRef)
		require.Equal(t, "URL", body.ContentRefType)
		require.Equal(t, "2023-04-12T09:30:00Z", body.SubmittedAt)
		require.NotNil(t, body.AdditionalFields)
		require.Empty(t, body.AdditionalFields)
	})

	t.Run("unknown content", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/partner-bucket/images/dog.jpg", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "404", body.Error)
	})
}

func TestGetActionHistory(t *testing.T) {
	env := newTestEnv(t)
	performedAt := time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)
	env.records.AddActionEvent(records.ActionEvent{
		ContentID:   "partner-bucket/images/cat.jpg",
		ActionLabel: "EnqueueForReview",
		PerformedAt: performedAt,
		ActionRules: []string{"review-everything"},
	})
	env.records.AddActionEvent(records.ActionEvent{
		ContentID:   "partner-bucket/images/cat.jpg",
		ActionLabel: "Takedown",
		PerformedAt: performedAt.Add(time.Minute),
	})

	rec := env.do(t, http.MethodGet, "/content/action-history/partner-bucket/images/cat.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body actionHistoryResponse
	decodeBody(t, rec, &body)
	require.Len(t, body.ActionHistory, 2)
	require.Equal(t, "EnqueueForReview", body.ActionHistory[0].ActionLabel)
	require.Equal(t, "2023-04-12T10:00:00Z", body.ActionHistory[0].PerformedAt)
	require.Equal(t, []string{"review-everything"}, body.ActionHistory[0].ActionRules)
	require.NotNil(t, body.ActionHistory[1].ActionRules)
	require.Empty(t, body.ActionHistory[1].ActionRules)
}

func TestGetImage(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.records.PutContent(context.Background(), records.ContentRecord{
		ContentID:   "uploaded-1",
		ContentType: records.ContentTypePhoto,
		RefType:     records.ContentRefTypeS3Object,
		Ref:         "images/uploaded-1",
		SubmittedAt: time.Now().UTC(),
	}))
	require.NoError(t, env.records.PutContent(context.Background(), records.ContentRecord{
		ContentID:   "partner-bucket/images/cat.jpg",
		ContentType: records.ContentTypePhoto,
		RefType:     records.ContentRefTypeURL,
		Ref:         "https://partner-bucket.example/images/cat.jpg",
		SubmittedAt: time.Now().UTC(),
	}))

	t.Run("stored object redirects to a signed URL", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/image/uploaded-1", nil)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "https://signed.example/images-bucket/images/uploaded-1?op=get_object&expires=3600", rec.Header().Get("Location"))
	})

	t.Run("url submission redirects to the source", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/image/partner-bucket/images/cat.jpg", nil)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "https://partner-bucket.example/images/cat.jpg", rec.Header().Get("Location"))
	})

	t.Run("unknown content", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/image/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
