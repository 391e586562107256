package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"

	"github.com/osaleh1i1/threatexchange/pkg/store"
)

const (
	contentKeyPrefix = "/content/"
	matchKeyPrefix   = "/match/"
	actionKeyPrefix  = "/action/"
	statsKeyPrefix   = "/stats/"
)

// DsRecordStore implements Store on an IPFS datastore. It backs local
// deployments; hosted deployments use the DynamoDB store in pkg/aws.
type DsRecordStore struct {
	data datastore.Datastore
	// counts are read-modify-write, the mutex keeps increments atomic within
	// the process.
	countMu sync.Mutex
}

var _ Store = (*DsRecordStore)(nil)

// NewDsRecordStore creates a [Store] backed by an IPFS datastore.
func NewDsRecordStore(ds datastore.Datastore) (*DsRecordStore, error) {
	return &DsRecordStore{data: ds}, nil
}

func contentKey(contentID string) datastore.Key {
	return datastore.NewKey(contentKeyPrefix + contentID)
}

func matchKey(contentID string, signalSource string, signalID string) datastore.Key {
	return datastore.NewKey(fmt.Sprintf("%s%s/%s/%s", matchKeyPrefix, contentID, signalSource, signalID))
}

func actionKey(contentID string, performedAt time.Time, label string) datastore.Key {
	return datastore.NewKey(fmt.Sprintf("%s%s/%s/%s", actionKeyPrefix, contentID, performedAt.UTC().Format(time.RFC3339), label))
}

// PutContent implements Store.
func (d *DsRecordStore) PutContent(ctx context.Context, rec ContentRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding content record: %w", err)
	}
	if err := d.data.Put(ctx, contentKey(rec.ContentID), b); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

// GetContent implements Store.
func (d *DsRecordStore) GetContent(ctx context.Context, contentID string) (ContentRecord, error) {
	b, err := d.data.Get(ctx, contentKey(contentID))
	if errors.Is(err, datastore.ErrNotFound) {
		return ContentRecord{}, store.ErrNotFound
	}
	if err != nil {
		return ContentRecord{}, fmt.Errorf("reading from datastore: %w", err)
	}
	var rec ContentRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return ContentRecord{}, fmt.Errorf("decoding content record: %w", err)
	}
	return rec, nil
}

// AddMatch writes a match record. The matcher stage owns match writes in
// hosted deployments; local tooling and tests use this to arrange fixtures.
func (d *DsRecordStore) AddMatch(ctx context.Context, m MatchRecord) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding match record: %w", err)
	}
	if err := d.data.Put(ctx, matchKey(m.ContentID, m.SignalSource, m.SignalID), b); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

// AddActionEvent writes an action event, see AddMatch.
func (d *DsRecordStore) AddActionEvent(ctx context.Context, e ActionEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding action event: %w", err)
	}
	if err := d.data.Put(ctx, actionKey(e.ContentID, e.PerformedAt, e.ActionLabel), b); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

func (d *DsRecordStore) queryMatches(ctx context.Context, prefix string) ([]MatchRecord, error) {
	results, err := d.data.Query(ctx, query.Query{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("querying datastore: %w", err)
	}
	defer results.Close()

	var matches []MatchRecord
	for entry := range results.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("iterating query results: %w", entry.Error)
		}
		var m MatchRecord
		if err := json.Unmarshal(entry.Value, &m); err != nil {
			return nil, fmt.Errorf("decoding match record: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// ListMatches implements Store.
func (d *DsRecordStore) ListMatches(ctx context.Context, contentID string) ([]MatchRecord, error) {
	// Content ids nest (one can be a path prefix of another), so the prefix
	// query over-selects and the decoded records are filtered exactly.
	candidates, err := d.queryMatches(ctx, matchKeyPrefix+contentID+"/")
	if err != nil {
		return nil, err
	}
	var matches []MatchRecord
	for _, m := range candidates {
		if m.ContentID == contentID {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// RecentMatches implements Store. It scans all match records; fine at
// review-UI page sizes against a local datastore.
func (d *DsRecordStore) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	matches, err := d.queryMatches(ctx, matchKeyPrefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MatchedAt.After(matches[j].MatchedAt) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// SetPendingOpinionChange implements Store.
func (d *DsRecordStore) SetPendingOpinionChange(ctx context.Context, contentID string, signalSource string, signalID string, change OpinionChange) error {
	k := matchKey(contentID, signalSource, signalID)
	b, err := d.data.Get(ctx, k)
	if errors.Is(err, datastore.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading from datastore: %w", err)
	}
	var m MatchRecord
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decoding match record: %w", err)
	}
	m.PendingOpinionChange = change
	updated, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding match record: %w", err)
	}
	if err := d.data.Put(ctx, k, updated); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

// ListActionEvents implements Store.
func (d *DsRecordStore) ListActionEvents(ctx context.Context, contentID string) ([]ActionEvent, error) {
	results, err := d.data.Query(ctx, query.Query{Prefix: actionKeyPrefix + contentID + "/"})
	if err != nil {
		return nil, fmt.Errorf("querying datastore: %w", err)
	}
	defer results.Close()

	var events []ActionEvent
	for entry := range results.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("iterating query results: %w", entry.Error)
		}
		var e ActionEvent
		if err := json.Unmarshal(entry.Value, &e); err != nil {
			return nil, fmt.Errorf("decoding action event: %w", err)
		}
		if e.ContentID == contentID {
			events = append(events, e)
		}
	}
	return events, nil
}

// IncrementCount implements Store.
func (d *DsRecordStore) IncrementCount(ctx context.Context, measure Measure, delta int64) error {
	d.countMu.Lock()
	defer d.countMu.Unlock()

	k := datastore.NewKey(statsKeyPrefix + string(measure))
	var count int64
	b, err := d.data.Get(ctx, k)
	if err != nil && !errors.Is(err, datastore.ErrNotFound) {
		return fmt.Errorf("reading from datastore: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(b, &count); err != nil {
			return fmt.Errorf("decoding counter: %w", err)
		}
	}
	count += delta
	updated, err := json.Marshal(count)
	if err != nil {
		return fmt.Errorf("encoding counter: %w", err)
	}
	if err := d.data.Put(ctx, k, updated); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

// GetCounts implements Store.
func (d *DsRecordStore) GetCounts(ctx context.Context) (map[Measure]int64, error) {
	results, err := d.data.Query(ctx, query.Query{Prefix: statsKeyPrefix})
	if err != nil {
		return nil, fmt.Errorf("querying datastore: %w", err)
	}
	defer results.Close()

	counts := make(map[Measure]int64)
	for entry := range results.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("iterating query results: %w", entry.Error)
		}
		var count int64
		if err := json.Unmarshal(entry.Value, &count); err != nil {
			return nil, fmt.Errorf("decoding counter: %w", err)
		}
		measure := Measure(datastore.NewKey(entry.Key).BaseNamespace())
		counts[measure] = count
	}
	return counts, nil
}
