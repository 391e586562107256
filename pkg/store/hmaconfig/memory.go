package hmaconfig

import (
	"context"
	"sync"

	"github.com/osaleh1i1/threatexchange/pkg/store"
)

// NewMapStore creates an in-memory Store, used in tests and local
// development.
func NewMapStore() *MapStore {
	return &MapStore{
		rules:      make(map[string]ActionRule),
		performers: make(map[string]ActionPerformer),
		collabs:    make(map[string]CollaborationConfig),
	}
}

// MapStore implements Store on in-process maps.
type MapStore struct {
	mu         sync.Mutex
	rules      map[string]ActionRule
	performers map[string]ActionPerformer
	collabs    map[string]CollaborationConfig
}

var _ Store = (*MapStore)(nil)

// ListActionRules implements Store.
func (ms *MapStore) ListActionRules(ctx context.Context) ([]ActionRule, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []ActionRule
	for _, r := range ms.rules {
		out = append(out, r)
	}
	return out, nil
}

// CreateActionRule implements Store.
func (ms *MapStore) CreateActionRule(ctx context.Context, rule ActionRule) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.rules[rule.Name]; ok {
		return store.ErrExists
	}
	ms.rules[rule.Name] = rule
	return nil
}

// UpdateActionRule implements Store.
func (ms *MapStore) UpdateActionRule(ctx context.Context, rule ActionRule) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.rules[rule.Name]; !ok {
		return store.ErrNotFound
	}
	ms.rules[rule.Name] = rule
	return nil
}

// DeleteActionRule implements Store.
func (ms *MapStore) DeleteActionRule(ctx context.Context, name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.rules, name)
	return nil
}

// ListActionPerformers implements Store.
func (ms *MapStore) ListActionPerformers(ctx context.Context) ([]ActionPerformer, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []ActionPerformer
	for _, p := range ms.performers {
		out = append(out, p)
	}
	return out, nil
}

// CreateActionPerformer implements Store.
func (ms *MapStore) CreateActionPerformer(ctx context.Context, performer ActionPerformer) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.performers[performer.Name]; ok {
		return store.ErrExists
	}
	ms.performers[performer.Name] = performer
	return nil
}

// UpdateActionPerformer implements Store.
func (ms *MapStore) UpdateActionPerformer(ctx context.Context, performer ActionPerformer) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.performers[performer.Name]; !ok {
		return store.ErrNotFound
	}
	ms.performers[performer.Name] = performer
	return nil
}

// DeleteActionPerformer implements Store.
func (ms *MapStore) DeleteActionPerformer(ctx context.Context, name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.performers, name)
	return nil
}

// ListCollaborations implements Store.
func (ms *MapStore) ListCollaborations(ctx context.Context) ([]CollaborationConfig, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []CollaborationConfig
	for _, c := range ms.collabs {
		out = append(out, c)
	}
	return out, nil
}

// GetCollaboration implements Store.
func (ms *MapStore) GetCollaboration(ctx context.Context, privacyGroupID string) (CollaborationConfig, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	c, ok := ms.collabs[privacyGroupID]
	if !ok {
		return CollaborationConfig{}, store.ErrNotFound
	}
	return c, nil
}

// PutCollaboration implements Store.
func (ms *MapStore) PutCollaboration(ctx context.Context, collab CollaborationConfig) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.collabs[collab.PrivacyGroupID] = collab
	return nil
}
