package records

import "context"

// Store is the pipeline datastore shared by the API entry point and the
// hasher/matcher stages. One store backs all record kinds for a deployment.
type Store interface {
	// PutContent adds or replaces the content record for a content id.
	// Replacement semantics make repeated submissions of the same object
	// idempotent.
	PutContent(context.Context, ContentRecord) error
	// GetContent retrieves one content record. Returns store.ErrNotFound if
	// the content id has never been submitted.
	GetContent(ctx context.Context, contentID string) (ContentRecord, error)
	// ListMatches returns the match records for one content id.
	ListMatches(ctx context.Context, contentID string) ([]MatchRecord, error)
	// RecentMatches returns up to limit match records, most recent first.
	RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error)
	// SetPendingOpinionChange annotates a match record with a requested
	// opinion change. Returns store.ErrNotFound if no such match exists.
	SetPendingOpinionChange(ctx context.Context, contentID string, signalSource string, signalID string, change OpinionChange) error
	// ListActionEvents returns the action events recorded for a content id.
	ListActionEvents(ctx context.Context, contentID string) ([]ActionEvent, error)
	// IncrementCount bumps a stat counter by delta.
	IncrementCount(ctx context.Context, measure Measure, delta int64) error
	// GetCounts returns all stat counters. Measures that were never
	// incremented are absent from the result.
	GetCounts(ctx context.Context) (map[Measure]int64, error)
}
