package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/internal/testutil"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

func storageRecord(bucket string, key string, size int64) events.S3EventRecord {
	var record events.S3EventRecord
	record.S3.Bucket.Name = bucket
	record.S3.Object.Key = key
	record.S3.Object.Size = size
	return record
}

func TestTranslate(t *testing.T) {
	t.Run("builds a URL submission", func(t *testing.T) {
		signer := &testutil.FakePresigner{}
		translator := NewTranslator(signer)

		body, err := translator.Translate(context.Background(), storageRecord("partner-bucket", "images/cat.jpg", 1024))
		require.NoError(t, err)
		require.Equal(t, submissions.SubmissionTypeFromURL, body.SubmissionType)
		require.Equal(t, "partner-bucket/images/cat.jpg", body.ContentID)
		require.Equal(t, records.ContentTypePhoto, body.ContentType)
		require.Nil(t, body.AdditionalFields)

		require.Len(t, signer.Calls, 1)
		call := signer.Calls[0]
		require.Equal(t, "partner-bucket", call.Bucket)
		require.Equal(t, "images/cat.jpg", call.Key)
		require.Empty(t, call.VersionID)
		require.Equal(t, time.Hour, call.Expiry)
		require.Equal(t, presigner.GetObject, call.Op)
		require.Contains(t, body.ContentRef, "partner-bucket/images/cat.jpg")
	})

	t.Run("keeps the delivered key verbatim", func(t *testing.T) {
		// Notification keys arrive URL-encoded. The content id preserves that
		// encoding so it round-trips through the rest of the pipeline.
		signer := &testutil.FakePresigner{}
		translator := NewTranslator(signer)

		body, err := translator.Translate(context.Background(), storageRecord("partner-bucket", "2023/04/my+photo+%281%29.jpg", 1024))
		require.NoError(t, err)
		require.Equal(t, "partner-bucket/2023/04/my+photo+%281%29.jpg", body.ContentID)
		require.Equal(t, "2023/04/my+photo+%281%29.jpg", signer.Calls[0].Key)
	})

	t.Run("malformed records", func(t *testing.T) {
		translator := NewTranslator(&testutil.FakePresigner{})

		_, err := translator.Translate(context.Background(), storageRecord("", "images/cat.jpg", 1024))
		require.Error(t, err)

		_, err = translator.Translate(context.Background(), storageRecord("partner-bucket", "", 1024))
		require.Error(t, err)
	})

	t.Run("signer failure propagates", func(t *testing.T) {
		translator := NewTranslator(&testutil.FakePresigner{FailKey: "images/cat.jpg"})

		_, err := translator.Translate(context.Background(), storageRecord("partner-bucket", "images/cat.jpg", 1024))
		require.ErrorContains(t, err, "signing access URL")
	})
}
