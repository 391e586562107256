package records

import (
	"context"
	"sort"
	"sync"

	"github.com/osaleh1i1/threatexchange/pkg/store"
)

// NewMapStore creates an in-memory Store, used in tests and local
// development.
func NewMapStore() *MapStore {
	return &MapStore{
		content: make(map[string]ContentRecord),
		counts:  make(map[Measure]int64),
	}
}

// MapStore implements Store on in-process maps.
type MapStore struct {
	mu      sync.Mutex
	content map[string]ContentRecord
	matches []MatchRecord
	actions []ActionEvent
	counts  map[Measure]int64
}

var _ Store = (*MapStore)(nil)

// PutContent implements Store.
func (ms *MapStore) PutContent(ctx context.Context, rec ContentRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.content[rec.ContentID] = rec
	return nil
}

// GetContent implements Store.
func (ms *MapStore) GetContent(ctx context.Context, contentID string) (ContentRecord, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	rec, ok := ms.content[contentID]
	if !ok {
		return ContentRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// AddMatch seeds a match record. The matcher stage owns match writes in
// production; tests use this to arrange fixtures.
func (ms *MapStore) AddMatch(m MatchRecord) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.matches = append(ms.matches, m)
}

// AddActionEvent seeds an action event, see AddMatch.
func (ms *MapStore) AddActionEvent(e ActionEvent) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.actions = append(ms.actions, e)
}

// ListMatches implements Store.
func (ms *MapStore) ListMatches(ctx context.Context, contentID string) ([]MatchRecord, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []MatchRecord
	for _, m := range ms.matches {
		if m.ContentID == contentID {
			out = append(out, m)
		}
	}
	return out, nil
}

// RecentMatches implements Store.
func (ms *MapStore) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]MatchRecord, len(ms.matches))
	copy(out, ms.matches)
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetPendingOpinionChange implements Store.
func (ms *MapStore) SetPendingOpinionChange(ctx context.Context, contentID string, signalSource string, signalID string, change OpinionChange) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i, m := range ms.matches {
		if m.ContentID == contentID && m.SignalSource == signalSource && m.SignalID == signalID {
			ms.matches[i].PendingOpinionChange = change
			return nil
		}
	}
	return store.ErrNotFound
}

// ListActionEvents implements Store.
func (ms *MapStore) ListActionEvents(ctx context.Context, contentID string) ([]ActionEvent, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []ActionEvent
	for _, e := range ms.actions {
		if e.ContentID == contentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// IncrementCount implements Store.
func (ms *MapStore) IncrementCount(ctx context.Context, measure Measure, delta int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.counts[measure] += delta
	return nil
}

// GetCounts implements Store.
func (ms *MapStore) GetCounts(ctx context.Context) (map[Measure]int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make(map[Measure]int64, len(ms.counts))
	for k, v := range ms.counts {
		out[k] = v
	}
	return out, nil
}
