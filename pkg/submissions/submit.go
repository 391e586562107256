// Package submissions implements the submission pipeline entry operations:
// registering new content and notifying the hasher stage.
package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

var log = logging.Logger("submissions")

// ErrInvalidSubmission is wrapped by errors describing a request body the
// pipeline cannot accept.
var ErrInvalidSubmission = errors.New("invalid submission")

// uploadURLExpiry bounds how long a direct-upload URL stays usable.
const uploadURLExpiry = time.Hour

// Notifier publishes URL-submission messages to the event-notification
// target that feeds the hasher stage.
type Notifier interface {
	PublishURLSubmission(ctx context.Context, msg messages.URLSubmissionMessage) error
}

// SubmitFromURL registers content reachable at a URL and notifies the hasher
// stage. Recording uses replacement semantics, so duplicate delivery of the
// same submission is tolerated.
func SubmitFromURL(ctx context.Context, body SubmitContentRequestBody, store records.Store, notifier Notifier) error {
	if body.SubmissionType != SubmissionTypeFromURL {
		return fmt.Errorf("%w: submission type %q is not %s", ErrInvalidSubmission, body.SubmissionType, SubmissionTypeFromURL)
	}
	if body.ContentID == "" {
		return fmt.Errorf("%w: missing content_id", ErrInvalidSubmission)
	}
	if body.ContentRef == "" {
		return fmt.Errorf("%w: missing content URL", ErrInvalidSubmission)
	}
	contentType := body.ContentType
	if contentType == "" {
		contentType = records.ContentTypePhoto
	}

	err := store.PutContent(ctx, records.ContentRecord{
		ContentID:        body.ContentID,
		ContentType:      contentType,
		RefType:          records.ContentRefTypeURL,
		Ref:              body.ContentRef,
		SubmittedAt:      time.Now().UTC(),
		AdditionalFields: body.AdditionalFields,
	})
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	if err := store.IncrementCount(ctx, records.MeasureSubmissions, 1); err != nil {
		// Stats are advisory, the submission itself already landed.
		log.Warnf("incrementing submissions count: %s", err)
	}

	msg := messages.NewURLSubmissionMessage(body.ContentID, string(contentType), body.ContentRef)
	if err := notifier.PublishURLSubmission(ctx, msg); err != nil {
		return fmt.Errorf("notifying hasher: %w", err)
	}
	return nil
}

// SubmitDirectUpload registers content that the caller will upload into the
// service's image bucket and returns a presigned PUT URL for the upload. The
// hasher is not notified here: the upload's storage notification drives the
// rest of the pipeline.
func SubmitDirectUpload(ctx context.Context, body SubmitContentRequestBody, store records.Store, signer presigner.RequestPresigner, bucket string, prefix string) (string, error) {
	if body.SubmissionType != SubmissionTypeDirectUpload {
		return "", fmt.Errorf("%w: submission type %q is not %s", ErrInvalidSubmission, body.SubmissionType, SubmissionTypeDirectUpload)
	}
	if body.ContentID == "" {
		return "", fmt.Errorf("%w: missing content_id", ErrInvalidSubmission)
	}
	contentType := body.ContentType
	if contentType == "" {
		contentType = records.ContentTypePhoto
	}

	key := prefix + body.ContentID
	err := store.PutContent(ctx, records.ContentRecord{
		ContentID:        body.ContentID,
		ContentType:      contentType,
		RefType:          records.ContentRefTypeS3Object,
		Ref:              key,
		SubmittedAt:      time.Now().UTC(),
		AdditionalFields: body.AdditionalFields,
	})
	if err != nil {
		return "", fmt.Errorf("recording submission: %w", err)
	}
	if err := store.IncrementCount(ctx, records.MeasureSubmissions, 1); err != nil {
		log.Warnf("incrementing submissions count: %s", err)
	}

	uploadURL, err := signer.PresignURL(ctx, bucket, key, "", uploadURLExpiry, presigner.PutObject)
	if err != nil {
		return "", fmt.Errorf("signing upload URL: %w", err)
	}
	return uploadURL, nil
}
