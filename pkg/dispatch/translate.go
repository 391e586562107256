package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

// accessURLExpiry is how long the temporary URL handed to the pipeline stays
// usable.
const accessURLExpiry = time.Hour

// Translator turns storage notification records into content submission
// requests.
type Translator struct {
	signer presigner.RequestPresigner
}

func NewTranslator(signer presigner.RequestPresigner) *Translator {
	return &Translator{signer: signer}
}

// Translate builds the submission request for one storage notification
// record: content id derived as bucket/key and a temporary GET URL for the
// object bytes. The key is used exactly as delivered in the event.
func (t *Translator) Translate(ctx context.Context, record events.S3EventRecord) (submissions.SubmitContentRequestBody, error) {
	bucket := record.S3.Bucket.Name
	key := record.S3.Object.Key
	if bucket == "" || key == "" {
		return submissions.SubmitContentRequestBody{}, fmt.Errorf("malformed storage record: bucket %q, key %q", bucket, key)
	}

	url, err := t.signer.PresignURL(ctx, bucket, key, "", accessURLExpiry, presigner.GetObject)
	if err != nil {
		return submissions.SubmitContentRequestBody{}, fmt.Errorf("signing access URL for %s/%s: %w", bucket, key, err)
	}

	return submissions.SubmitContentRequestBody{
		SubmissionType: submissions.SubmissionTypeFromURL,
		ContentID:      bucket + "/" + key,
		ContentType:    records.ContentTypePhoto,
		ContentRef:     url,
	}, nil
}
