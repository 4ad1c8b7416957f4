package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/dunbar/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
	"github.com/jupiterclapton/dunbar/internal/core/services"
)

// --- FAKES (ports secondaires) ---

// fakeEvents enregistre les publications au lieu de parler à NATS.
type fakeEvents struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEvents) record(e string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) PublishFollowRequested(ctx context.Context, followerID, targetID string) error {
	return f.record("follow.requested")
}
func (f *fakeEvents) PublishFollowAccepted(ctx context.Context, followerID, targetID string) error {
	return f.record("follow.accepted")
}
func (f *fakeEvents) PublishFollowRemoved(ctx context.Context, followerID, targetID string) error {
	return f.record("follow.removed")
}
func (f *fakeEvents) PublishPostFlagged(ctx context.Context, postID string, reportCount int) error {
	return f.record("post.flagged")
}
func (f *fakeEvents) PublishPostReviewed(ctx context.Context, postID string, action domain.ReviewAction) error {
	return f.record("post.reviewed")
}

func (f *fakeEvents) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.events...)
}

// fakeQueue simule la file Redis en mémoire.
type fakeQueue struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeQueue) Push(ctx context.Context, postID string, flaggedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, postID)
	return nil
}

func (f *fakeQueue) Remove(ctx context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.ids[:0]
	for _, id := range f.ids {
		if id != postID {
			out = append(out, id)
		}
	}
	f.ids = out
	return nil
}

func (f *fakeQueue) List(ctx context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > 0 && limit < len(f.ids) {
		return append([]string{}, f.ids[:limit]...), nil
	}
	return append([]string{}, f.ids...), nil
}

// --- FIXTURES ---

type fixture struct {
	store         *repository.MemoryStore
	events        *fakeEvents
	queue         *fakeQueue
	accounts      ports.AccountService
	relationships ports.RelationshipService
	visibility    ports.VisibilityService
	posts         ports.PostService
	moderation    ports.ModerationService
}

type fixtureOpts struct {
	followCap       int
	reportThreshold int
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	events := &fakeEvents{}
	queue := &fakeQueue{}

	visibility := services.NewVisibilityService(store)
	return &fixture{
		store:         store,
		events:        events,
		queue:         queue,
		accounts:      services.NewAccountService(store),
		relationships: services.NewRelationshipService(store, events, opts.followCap),
		visibility:    visibility,
		posts:         services.NewPostService(store, visibility),
		moderation:    services.NewModerationService(store, events, queue, opts.reportThreshold),
	}
}

func (f *fixture) register(t *testing.T, username string, private bool) *domain.Account {
	t.Helper()
	account, err := f.accounts.Register(context.Background(), ports.RegisterAccountCmd{
		Username:  username,
		FullName:  username,
		IsPrivate: private,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) registerAdmin(t *testing.T, username string) *domain.Account {
	t.Helper()
	admin := f.register(t, username, false)

	// Promotion directe via le store (pas d'API de promotion dans le moteur)
	ctx := context.Background()
	tx, err := f.store.BeginTx(ctx)
	require.NoError(t, err)
	admin.Role = domain.RoleAdmin
	require.NoError(t, tx.UpdateAccount(ctx, admin))
	require.NoError(t, tx.Commit(ctx))
	return admin
}

func (f *fixture) createPost(t *testing.T, authorID, content string) *domain.Post {
	t.Helper()
	post, err := f.posts.CreatePost(context.Background(), ports.CreatePostCmd{
		AuthorID: authorID,
		Content:  content,
	})
	require.NoError(t, err)
	return post
}

// counters relit les deux compteurs depuis le store.
func (f *fixture) counters(t *testing.T, accountID string) (followers, following int) {
	t.Helper()
	account, err := f.store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.FollowerCount, account.FollowingCount
}
