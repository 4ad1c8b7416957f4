package services_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

var reporterSeq atomic.Int64

// submitReports fait signaler le post par n comptes distincts.
func submitReports(t *testing.T, f *fixture, postID string, n int) *domain.Post {
	t.Helper()
	ctx := context.Background()

	var post *domain.Post
	for i := 0; i < n; i++ {
		reporter := f.register(t, fmt.Sprintf("reporter-%d", reporterSeq.Add(1)), false)
		var err error
		post, err = f.moderation.SubmitReport(ctx, ports.SubmitReportCmd{
			PostID:     postID,
			ReporterID: reporter.ID,
			Reason:     "spam",
		})
		require.NoError(t, err)
	}
	return post
}

func TestSubmitReport_IncrementsCount(t *testing.T) {
	f := newFixture(t, fixtureOpts{reportThreshold: 5})
	ctx := context.Background()

	author := f.register(t, "author", false)
	post := f.createPost(t, author.ID, "hello")
	reporter := f.register(t, "reporter", false)

	updated, err := f.moderation.SubmitReport(ctx, ports.SubmitReportCmd{
		PostID:     post.ID,
		ReporterID: reporter.ID,
		Reason:     "harassment",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReportCount)
	assert.False(t, updated.IsPriorityReview)
	assert.Empty(t, f.events.published())
}

func TestSubmitReport_Validation(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	post := f.createPost(t, author.ID, "hello")
	reporter := f.register(t, "reporter", false)

	t.Run("unknown reason", func(t *testing.T) {
		_, err := f.moderation.SubmitReport(ctx, ports.SubmitReportCmd{
			PostID: post.ID, ReporterID: reporter.ID, Reason: "boring",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidReportReason)
		assert.Equal(t, domain.KindValidation, domain.Kind(err))
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := f.moderation.SubmitReport(ctx, ports.SubmitReportCmd{
			PostID: "ghost", ReporterID: reporter.ID, Reason: "spam",
		})
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
	})

	t.Run("unknown reporter", func(t *testing.T) {
		_, err := f.moderation.SubmitReport(ctx, ports.SubmitReportCmd{
			PostID: post.ID, ReporterID: "ghost", Reason: "spam",
		})
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestSubmitReport_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	post := f.createPost(t, author.ID, "hello")
	reporter := f.register(t, "reporter", false)

	cmd := ports.SubmitReportCmd{PostID: post.ID, ReporterID: reporter.ID, Reason: "spam"}
	_, err := f.moderation.SubmitReport(ctx, cmd)
	require.NoError(t, err)

	// Même avec une autre raison : un signalement par (post, reporter)
	cmd.Reason = "violence"
	_, err = f.moderation.SubmitReport(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrDuplicateReport)
	assert.Equal(t, domain.KindConflict, domain.Kind(err))

	// Le doublon rejeté n'a rien incrémenté
	got, err := f.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReportCount)
}

func TestSubmitReport_ThresholdFlagsPost(t *testing.T) {
	const threshold = 3
	f := newFixture(t, fixtureOpts{reportThreshold: threshold})
	ctx := context.Background()

	author := f.register(t, "author", false)
	post := f.createPost(t, author.ID, "hello")

	updated := submitReports(t, f, post.ID, threshold-1)
	assert.False(t, updated.IsPriorityReview)
	assert.Empty(t, f.events.published())

	updated = submitReports(t, f, post.ID, 1)
	assert.Equal(t, threshold, updated.ReportCount)
	assert.True(t, updated.IsPriorityReview)

	// Flag franchi = une seule entrée en file et un seul événement
	ids, err := f.queue.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, ids)
	assert.Equal(t, []string{"post.flagged"}, f.events.published())

	// Les signalements suivants n'émettent plus rien : flag monotone
	submitReports(t, f, post.ID, 1)
	assert.Equal(t, []string{"post.flagged"}, f.events.published())
}

func TestReviewPost_Remove(t *testing.T) {
	const threshold = 2
	f := newFixture(t, fixtureOpts{reportThreshold: threshold})
	ctx := context.Background()

	author := f.register(t, "author", false)
	admin := f.registerAdmin(t, "admin")
	post := f.createPost(t, author.ID, "hello")
	submitReports(t, f, post.ID, threshold)

	err := f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
		PostID: post.ID, AdminID: admin.ID, Action: "remove",
	})
	require.NoError(t, err)

	got, err := f.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRemoved)
	assert.False(t, got.IsPriorityReview)
	assert.Equal(t, threshold, got.ReportCount)

	// Les signalements pending passent en removed, avec le reviewer
	reports, err := f.store.ListReports(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, reports, threshold)
	for _, r := range reports {
		assert.Equal(t, domain.ReportRemoved, r.Status)
		require.NotNil(t, r.ReviewerID)
		assert.Equal(t, admin.ID, *r.ReviewerID)
		assert.NotNil(t, r.ReviewedAt)
	}

	// Tally auteur + file vidée
	account, err := f.store.GetAccount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, account.RemovedPostCount)

	ids, err := f.queue.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Contains(t, f.events.published(), "post.reviewed")
}

func TestReviewPost_ApproveKeepsReportCount(t *testing.T) {
	const threshold = 2
	f := newFixture(t, fixtureOpts{reportThreshold: threshold})
	ctx := context.Background()

	author := f.register(t, "author", false)
	admin := f.registerAdmin(t, "admin")
	post := f.createPost(t, author.ID, "hello")
	submitReports(t, f, post.ID, threshold)

	err := f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
		PostID: post.ID, AdminID: admin.ID, Action: "approve",
	})
	require.NoError(t, err)

	got, err := f.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRemoved)
	assert.False(t, got.IsPriorityReview)
	// Le signal historique reste
	assert.Equal(t, threshold, got.ReportCount)

	reports, err := f.store.ListReports(ctx, post.ID)
	require.NoError(t, err)
	for _, r := range reports {
		assert.Equal(t, domain.ReportReviewedOk, r.Status)
	}

	account, err := f.store.GetAccount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, account.RemovedPostCount)
}

func TestReviewPost_RemoveIsIdempotentOnTally(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	admin := f.registerAdmin(t, "admin")
	post := f.createPost(t, author.ID, "hello")

	cmd := ports.ReviewPostCmd{PostID: post.ID, AdminID: admin.ID, Action: "remove"}
	require.NoError(t, f.moderation.ReviewPost(ctx, cmd))
	require.NoError(t, f.moderation.ReviewPost(ctx, cmd))

	// Deux revues "remove" du même post ne comptent qu'une fois
	account, err := f.store.GetAccount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, account.RemovedPostCount)
}

func TestReviewPost_Authorization(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	author := f.register(t, "author", false)
	intruder := f.register(t, "intruder", false)
	post := f.createPost(t, author.ID, "hello")

	t.Run("non admin", func(t *testing.T) {
		err := f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
			PostID: post.ID, AdminID: intruder.ID, Action: "remove",
		})
		assert.ErrorIs(t, err, domain.ErrNotAllowed)
		assert.Equal(t, domain.KindAuthorization, domain.Kind(err))
	})

	t.Run("bad action", func(t *testing.T) {
		admin := f.registerAdmin(t, "admin")
		err := f.moderation.ReviewPost(ctx, ports.ReviewPostCmd{
			PostID: post.ID, AdminID: admin.ID, Action: "obliterate",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidReviewAction)
	})
}

func TestListPriorityQueue(t *testing.T) {
	const threshold = 1
	f := newFixture(t, fixtureOpts{reportThreshold: threshold})
	ctx := context.Background()

	author := f.register(t, "author", false)
	admin := f.registerAdmin(t, "admin")
	first := f.createPost(t, author.ID, "first")
	second := f.createPost(t, author.ID, "second")
	submitReports(t, f, first.ID, threshold)
	submitReports(t, f, second.ID, threshold)

	t.Run("admin only", func(t *testing.T) {
		_, err := f.moderation.ListPriorityQueue(ctx, author.ID, 0)
		assert.ErrorIs(t, err, domain.ErrNotAllowed)
	})

	t.Run("hydrated oldest first", func(t *testing.T) {
		posts, err := f.moderation.ListPriorityQueue(ctx, admin.ID, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, first.ID, posts[0].ID)
		assert.Equal(t, second.ID, posts[1].ID)
	})

	t.Run("posts deleted since the flag are skipped", func(t *testing.T) {
		require.NoError(t, f.posts.DeletePost(ctx, author.ID, first.ID))
		posts, err := f.moderation.ListPriorityQueue(ctx, admin.ID, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, second.ID, posts[0].ID)
	})
}
