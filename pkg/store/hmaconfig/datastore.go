package hmaconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"

	"github.com/osaleh1i1/threatexchange/pkg/store"
)

const (
	ruleKeyPrefix      = "/rule/"
	performerKeyPrefix = "/performer/"
	collabKeyPrefix    = "/collab/"
)

// DsConfigStore implements Store on an IPFS datastore. It backs local
// deployments; hosted deployments use the DynamoDB config table in pkg/aws.
type DsConfigStore struct {
	data datastore.Datastore
	// Create checks existence before writing, the mutex keeps that sequence
	// atomic within the process.
	mu sync.Mutex
}

var _ Store = (*DsConfigStore)(nil)

// NewDsConfigStore creates a [Store] backed by an IPFS datastore.
func NewDsConfigStore(ds datastore.Datastore) (*DsConfigStore, error) {
	return &DsConfigStore{data: ds}, nil
}

func (d *DsConfigStore) list(ctx context.Context, prefix string, decode func([]byte) error) error {
	results, err := d.data.Query(ctx, query.Query{Prefix: prefix})
	if err != nil {
		return fmt.Errorf("querying datastore: %w", err)
	}
	defer results.Close()

	for entry := range results.Next() {
		if entry.Error != nil {
			return fmt.Errorf("iterating query results: %w", entry.Error)
		}
		if err := decode(entry.Value); err != nil {
			return err
		}
	}
	return nil
}

func (d *DsConfigStore) create(ctx context.Context, key datastore.Key, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	exists, err := d.data.Has(ctx, key)
	if err != nil {
		return fmt.Errorf("checking datastore: %w", err)
	}
	if exists {
		return store.ErrExists
	}
	return d.put(ctx, key, value)
}

func (d *DsConfigStore) update(ctx context.Context, key datastore.Key, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	exists, err := d.data.Has(ctx, key)
	if err != nil {
		return fmt.Errorf("checking datastore: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return d.put(ctx, key, value)
}

func (d *DsConfigStore) put(ctx context.Context, key datastore.Key, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := d.data.Put(ctx, key, b); err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

// ListActionRules implements Store.
func (d *DsConfigStore) ListActionRules(ctx context.Context) ([]ActionRule, error) {
	var rules []ActionRule
	err := d.list(ctx, ruleKeyPrefix, func(b []byte) error {
		var rule ActionRule
		if err := json.Unmarshal(b, &rule); err != nil {
			return fmt.Errorf("decoding action rule: %w", err)
		}
		rules = append(rules, rule)
		return nil
	})
	return rules, err
}

// CreateActionRule implements Store.
func (d *DsConfigStore) CreateActionRule(ctx context.Context, rule ActionRule) error {
	return d.create(ctx, datastore.NewKey(ruleKeyPrefix+rule.Name), rule)
}

// UpdateActionRule implements Store.
func (d *DsConfigStore) UpdateActionRule(ctx context.Context, rule ActionRule) error {
	return d.update(ctx, datastore.NewKey(ruleKeyPrefix+rule.Name), rule)
}

// DeleteActionRule implements Store.
func (d *DsConfigStore) DeleteActionRule(ctx context.Context, name string) error {
	return d.data.Delete(ctx, datastore.NewKey(ruleKeyPrefix+name))
}

// ListActionPerformers implements Store.
func (d *DsConfigStore) ListActionPerformers(ctx context.Context) ([]ActionPerformer, error) {
	var performers []ActionPerformer
	err := d.list(ctx, performerKeyPrefix, func(b []byte) error {
		var performer ActionPerformer
		if err := json.Unmarshal(b, &performer); err != nil {
			return fmt.Errorf("decoding action performer: %w", err)
		}
		performers = append(performers, performer)
		return nil
	})
	return performers, err
}

// CreateActionPerformer implements Store.
func (d *DsConfigStore) CreateActionPerformer(ctx context.Context, performer ActionPerformer) error {
	return d.create(ctx, datastore.NewKey(performerKeyPrefix+performer.Name), performer)
}

// UpdateActionPerformer implements Store.
func (d *DsConfigStore) UpdateActionPerformer(ctx context.Context, performer ActionPerformer) error {
	return d.update(ctx, datastore.NewKey(performerKeyPrefix+performer.Name), performer)
}

// DeleteActionPerformer implements Store.
func (d *DsConfigStore) DeleteActionPerformer(ctx context.Context, name string) error {
	return d.data.Delete(ctx, datastore.NewKey(performerKeyPrefix+name))
}

// ListCollaborations implements Store.
func (d *DsConfigStore) ListCollaborations(ctx context.Context) ([]CollaborationConfig, error) {
	var collabs []CollaborationConfig
	err := d.list(ctx, collabKeyPrefix, func(b []byte) error {
		var collab CollaborationConfig
		if err := json.Unmarshal(b, &collab); err != nil {
			return fmt.Errorf("decoding collaboration config: %w", err)
		}
		collabs = append(collabs, collab)
		return nil
	})
	return collabs, err
}

// GetCollaboration implements Store.
func (d *DsConfigStore) GetCollaboration(ctx context.Context, privacyGroupID string) (CollaborationConfig, error) {
	b, err := d.data.Get(ctx, datastore.NewKey(collabKeyPrefix+privacyGroupID))
	if errors.Is(err, datastore.ErrNotFound) {
		return CollaborationConfig{}, store.ErrNotFound
	}
	if err != nil {
		return CollaborationConfig{}, fmt.Errorf("reading from datastore: %w", err)
	}
	var collab CollaborationConfig
	if err := json.Unmarshal(b, &collab); err != nil {
		return CollaborationConfig{}, fmt.Errorf("decoding collaboration config: %w", err)
	}
	return collab, nil
}

// PutCollaboration implements Store.
func (d *DsConfigStore) PutCollaboration(ctx context.Context, collab CollaborationConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.put(ctx, datastore.NewKey(collabKeyPrefix+collab.PrivacyGroupID), collab)
}
