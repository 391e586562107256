package hmaconfig

import "context"

// Store provides access to the config table. Objects are small and read on
// demand; no caching happens at this layer.
type Store interface {
	// ListActionRules returns all action rules.
	ListActionRules(ctx context.Context) ([]ActionRule, error)
	// CreateActionRule fails with store.ErrExists if the name is taken.
	CreateActionRule(ctx context.Context, rule ActionRule) error
	// UpdateActionRule fails with store.ErrNotFound if the rule is absent.
	UpdateActionRule(ctx context.Context, rule ActionRule) error
	// DeleteActionRule removes a rule. Deleting an absent rule is not an
	// error.
	DeleteActionRule(ctx context.Context, name string) error

	// ListActionPerformers returns all action performers.
	ListActionPerformers(ctx context.Context) ([]ActionPerformer, error)
	// CreateActionPerformer fails with store.ErrExists if the name is taken.
	CreateActionPerformer(ctx context.Context, performer ActionPerformer) error
	// UpdateActionPerformer fails with store.ErrNotFound if absent.
	UpdateActionPerformer(ctx context.Context, performer ActionPerformer) error
	// DeleteActionPerformer removes a performer, absent is not an error.
	DeleteActionPerformer(ctx context.Context, name string) error

	// ListCollaborations returns all collaboration configs.
	ListCollaborations(ctx context.Context) ([]CollaborationConfig, error)
	// GetCollaboration fails with store.ErrNotFound if absent.
	GetCollaboration(ctx context.Context, privacyGroupID string) (CollaborationConfig, error)
	// PutCollaboration adds or replaces a collaboration config.
	PutCollaboration(ctx context.Context, collab CollaborationConfig) error
}
