package records

import "time"

// ContentType labels the media class of submitted content. Only photos move
// through the storage-notification path; other types arrive via the API.
type ContentType string

const (
	ContentTypePhoto ContentType = "PHOTO"
	ContentTypeVideo ContentType = "VIDEO"
)

// ContentRefType describes how a content record references its bytes.
type ContentRefType string

const (
	// ContentRefTypeURL means the bytes are reachable at a (possibly
	// temporary) URL.
	ContentRefTypeURL ContentRefType = "URL"
	// ContentRefTypeS3Object means the bytes live in the service's own image
	// bucket, keyed by image prefix + content id.
	ContentRefTypeS3Object ContentRefType = "S3_OBJECT"
)

// OpinionChange is a reviewer-requested change to the opinion attached to a
// match, written back to the signal source by the writeback stage.
type OpinionChange string

const (
	OpinionChangeMarkTruePositive  OpinionChange = "mark_true_positive"
	OpinionChangeMarkFalsePositive OpinionChange = "mark_false_positive"
	OpinionChangeRemoveOpinion     OpinionChange = "remove_opinion"
)

// ContentRecord is the root record for one piece of submitted content.
type ContentRecord struct {
	ContentID        string
	ContentType      ContentType
	RefType          ContentRefType
	Ref              string
	SubmittedAt      time.Time
	AdditionalFields map[string]string
}

// MatchRecord records that a signal from a source matched a piece of content.
// Match records are written by the matcher stage; this service reads them and
// annotates them with pending opinion changes.
type MatchRecord struct {
	ContentID            string
	SignalID             string
	SignalSource         string
	SignalHash           string
	MatchedAt            time.Time
	PendingOpinionChange OpinionChange
}

// ActionEvent records that an action was performed on a piece of content.
type ActionEvent struct {
	ContentID   string
	ActionLabel string
	PerformedAt time.Time
	ActionRules []string
}

// Measure names a pipeline stat counter.
type Measure string

const (
	MeasureSubmissions Measure = "submissions"
	MeasureHashes      Measure = "hashes"
	MeasureMatches     Measure = "matches"
)
