package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// follow établit un edge approuvé follower -> target (cible publique).
func follow(t *testing.T, f *fixture, followerID, targetID string) {
	t.Helper()
	state, err := f.relationships.RequestFollow(context.Background(), followerID, targetID)
	require.NoError(t, err)
	require.Equal(t, domain.EdgeApproved, state)
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)

	post, err := f.posts.CreatePost(ctx, ports.CreatePostCmd{
		AuthorID: author.ID,
		Content:  "premier post",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Zero(t, post.ReportCount)

	t.Run("empty content", func(t *testing.T) {
		_, err := f.posts.CreatePost(ctx, ports.CreatePostCmd{AuthorID: author.ID})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := f.posts.CreatePost(ctx, ports.CreatePostCmd{AuthorID: "ghost", Content: "x"})
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestGetPost_Visibility(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", true)
	follower := f.register(t, "follower", false)
	stranger := f.register(t, "stranger", false)
	post := f.createPost(t, author.ID, "hello")

	_, err := f.relationships.RequestFollow(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	require.NoError(t, f.relationships.AcceptFollow(ctx, author.ID, follower.ID))

	t.Run("author sees it", func(t *testing.T) {
		got, err := f.posts.GetPost(ctx, author.ID, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
	})

	t.Run("approved follower sees it", func(t *testing.T) {
		_, err := f.posts.GetPost(ctx, follower.ID, post.ID)
		require.NoError(t, err)
	})

	t.Run("stranger gets not found, not forbidden", func(t *testing.T) {
		_, err := f.posts.GetPost(ctx, stranger.ID, post.ID)
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
	})
}

func TestGetPost_RemovedOnlyVisibleToAuthor(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	follower := f.register(t, "follower", false)
	admin := f.registerAdmin(t, "admin")
	follow(t, f, follower.ID, author.ID)
	post := f.createPost(t, author.ID, "hello")

	require.NoError(t, f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
		PostID: post.ID, AdminID: admin.ID, Action: "remove",
	}))

	got, err := f.posts.GetPost(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRemoved)

	_, err = f.posts.GetPost(ctx, follower.ID, post.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestListPostsByAuthor(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	follower := f.register(t, "follower", false)
	stranger := f.register(t, "stranger", false)
	admin := f.registerAdmin(t, "admin")
	follow(t, f, follower.ID, author.ID)

	kept := f.createPost(t, author.ID, "kept")
	removed := f.createPost(t, author.ID, "removed")
	require.NoError(t, f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
		PostID: removed.ID, AdminID: admin.ID, Action: "remove",
	}))

	t.Run("author sees everything, removed included", func(t *testing.T) {
		posts, err := f.posts.ListPostsByAuthor(ctx, author.ID, author.ID, 0, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("follower only sees live posts", func(t *testing.T) {
		posts, err := f.posts.ListPostsByAuthor(ctx, follower.ID, author.ID, 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, kept.ID, posts[0].ID)
	})

	t.Run("stranger sees an empty list", func(t *testing.T) {
		posts, err := f.posts.ListPostsByAuthor(ctx, stranger.ID, author.ID, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	other := f.register(t, "other", false)
	post := f.createPost(t, author.ID, "hello")

	t.Run("author only", func(t *testing.T) {
		err := f.posts.DeletePost(ctx, other.ID, post.ID)
		assert.ErrorIs(t, err, domain.ErrNotAllowed)
	})

	t.Run("hard delete", func(t *testing.T) {
		require.NoError(t, f.posts.DeletePost(ctx, author.ID, post.ID))
		_, err := f.store.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
	})
}

func TestAddComment(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", true)
	follower := f.register(t, "follower", false)
	stranger := f.register(t, "stranger", false)
	post := f.createPost(t, author.ID, "hello")

	_, err := f.relationships.RequestFollow(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	require.NoError(t, f.relationships.AcceptFollow(ctx, author.ID, follower.ID))

	t.Run("approved follower can comment", func(t *testing.T) {
		comment, err := f.posts.AddComment(ctx, ports.AddCommentCmd{
			PostID: post.ID, AuthorID: follower.ID, Content: "bien vu",
		})
		require.NoError(t, err)
		assert.Equal(t, follower.ID, comment.AuthorID)
	})

	t.Run("stranger cannot", func(t *testing.T) {
		_, err := f.posts.AddComment(ctx, ports.AddCommentCmd{
			PostID: post.ID, AuthorID: stranger.ID, Content: "non",
		})
		assert.ErrorIs(t, err, domain.ErrNotAllowed)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := f.posts.AddComment(ctx, ports.AddCommentCmd{
			PostID: post.ID, AuthorID: follower.ID,
		})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}

func TestAddComment_RemovedPost(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	admin := f.registerAdmin(t, "admin")
	post := f.createPost(t, author.ID, "hello")

	require.NoError(t, f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
		PostID: post.ID, AdminID: admin.ID, Action: "remove",
	}))

	// Même l'auteur ne commente plus un post retiré
	_, err := f.posts.AddComment(ctx, ports.AddCommentCmd{
		PostID: post.ID, AuthorID: author.ID, Content: "si ?",
	})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}
