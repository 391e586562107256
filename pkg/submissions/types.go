package submissions

import (
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

// SubmissionType tells the pipeline how the content bytes are delivered.
type SubmissionType string

const (
	// SubmissionTypeFromURL submits content reachable at a URL, commonly a
	// temporary access URL minted for a partner bucket object.
	SubmissionTypeFromURL SubmissionType = "FROM_URL"
	// SubmissionTypeDirectUpload asks the service for a presigned upload URL
	// into its own image bucket. The resulting storage notification re-enters
	// the pipeline once the upload lands.
	SubmissionTypeDirectUpload SubmissionType = "DIRECT_UPLOAD"
)

// SubmitContentRequestBody is the canonical unit accepted by the submission
// pipeline, from the API and from storage notifications alike.
type SubmitContentRequestBody struct {
	SubmissionType   SubmissionType      `json:"submission_type"`
	ContentID        string              `json:"content_id"`
	ContentType      records.ContentType `json:"content_type"`
	ContentRef       string              `json:"content_bytes_url_or_file_type"`
	AdditionalFields map[string]string   `json:"additional_fields,omitempty"`
}
