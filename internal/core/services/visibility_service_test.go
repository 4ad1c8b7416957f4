package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

func TestCanViewPosts_Owner(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", true)

	ok, err := f.visibility.CanViewPosts(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanViewPosts_RequiresApprovedEdge(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", true)

	// Aucun edge : rien
	ok, err := f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Pending : toujours rien
	_, err = f.relationships.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	ok, err = f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Approved : accès
	require.NoError(t, f.relationships.AcceptFollow(ctx, bob.ID, alice.ID))
	ok, err = f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// L'edge est orienté : bob ne voit pas alice pour autant
	ok, err = f.visibility.CanViewPosts(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanViewPosts_RevokedAfterUnfollow(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	_, err := f.relationships.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, f.relationships.Unfollow(ctx, alice.ID, bob.ID))

	ok, err := f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanViewPosts_RejectedRequestGrantsNothing(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", true)

	_, err := f.relationships.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, f.relationships.RejectFollow(ctx, bob.ID, alice.ID))

	ok, err := f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Le flag privé ne rétroagit pas : les followers acquis quand le compte était
// public gardent leur accès après le passage en privé.
func TestCanViewPosts_PrivacyFlipKeepsExistingFollowers(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", false)

	_, err := f.relationships.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.accounts.UpdatePrivacy(ctx, bob.ID, true)
	require.NoError(t, err)

	ok, err := f.visibility.CanViewPosts(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Mais les nouvelles demandes partent bien en pending
	carol := f.register(t, "carol", false)
	state, err := f.relationships.RequestFollow(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EdgePending, state)
}

func TestCanViewPosts_UnknownOwner(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)

	_, err := f.visibility.CanViewPosts(ctx, alice.ID, "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCanComment_SameRuleAsViewing(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	alice := f.register(t, "alice", false)
	bob := f.register(t, "bob", true)

	ok, err := f.visibility.CanComment(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.relationships.RequestFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, f.relationships.AcceptFollow(ctx, bob.ID, alice.ID))

	ok, err = f.visibility.CanComment(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
