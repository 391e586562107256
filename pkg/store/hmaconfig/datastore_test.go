package hmaconfig

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/store"
)

func TestDsConfigStoreActionRules(t *testing.T) {
	ctx := context.Background()
	cs, err := NewDsConfigStore(datastore.NewMapDatastore())
	require.NoError(t, err)

	rule := ActionRule{
		Name:           "review-everything",
		MustHaveLabels: []Label{{Key: "BankedContentID", Value: "*"}},
		ActionLabel:    Label{Key: "Action", Value: "EnqueueForReview"},
	}

	t.Run("create and list", func(t *testing.T) {
		require.NoError(t, cs.CreateActionRule(ctx, rule))
		rules, err := cs.ListActionRules(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		require.Equal(t, rule, rules[0])
	})

	t.Run("duplicate create", func(t *testing.T) {
		require.ErrorIs(t, cs.CreateActionRule(ctx, rule), store.ErrExists)
	})

	t.Run("update", func(t *testing.T) {
		updated := rule
		updated.ActionLabel = Label{Key: "Action", Value: "Takedown"}
		require.NoError(t, cs.UpdateActionRule(ctx, updated))
		rules, err := cs.ListActionRules(ctx)
		require.NoError(t, err)
		require.Equal(t, "Takedown", rules[0].ActionLabel.Value)
	})

	t.Run("update missing", func(t *testing.T) {
		missing := rule
		missing.Name = "ghost"
		require.ErrorIs(t, cs.UpdateActionRule(ctx, missing), store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cs.DeleteActionRule(ctx, rule.Name))
		rules, err := cs.ListActionRules(ctx)
		require.NoError(t, err)
		require.Empty(t, rules)
		// Absent delete is not an error.
		require.NoError(t, cs.DeleteActionRule(ctx, rule.Name))
	})
}

func TestDsConfigStoreActionPerformers(t *testing.T) {
	ctx := context.Background()
	cs, err := NewDsConfigStore(datastore.NewMapDatastore())
	require.NoError(t, err)

	performer := ActionPerformer{
		Name: "EnqueueForReview",
		URL:  "https://partner.example/review-webhook",
	}

	require.NoError(t, cs.CreateActionPerformer(ctx, performer))
	require.ErrorIs(t, cs.CreateActionPerformer(ctx, performer), store.ErrExists)

	performers, err := cs.ListActionPerformers(ctx)
	require.NoError(t, err)
	require.Len(t, performers, 1)
	require.Equal(t, performer, performers[0])

	performer.URL = "https://partner.example/v2/review-webhook"
	require.NoError(t, cs.UpdateActionPerformer(ctx, performer))

	require.NoError(t, cs.DeleteActionPerformer(ctx, performer.Name))
	require.ErrorIs(t, cs.UpdateActionPerformer(ctx, performer), store.ErrNotFound)
}

func TestDsConfigStoreCollaborations(t *testing.T) {
	ctx := context.Background()
	cs, err := NewDsConfigStore(datastore.NewMapDatastore())
	require.NoError(t, err)

	collab := CollaborationConfig{
		PrivacyGroupID: "303636684709969",
		Name:           "test-collab",
		FetcherActive:  true,
		InUse:          true,
	}

	_, err = cs.GetCollaboration(ctx, collab.PrivacyGroupID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, cs.PutCollaboration(ctx, collab))
	got, err := cs.GetCollaboration(ctx, collab.PrivacyGroupID)
	require.NoError(t, err)
	require.Equal(t, collab, got)

	collab.MatcherActive = true
	require.NoError(t, cs.PutCollaboration(ctx, collab))
	collabs, err := cs.ListCollaborations(ctx)
	require.NoError(t, err)
	require.Len(t, collabs, 1)
	require.True(t, collabs[0].MatcherActive)
}
