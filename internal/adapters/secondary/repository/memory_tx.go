package repository

import (
	"context"
	"time"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

// memoryTx détient le verrou exclusif du store de BeginTx à Commit/Rollback
// et mute une copie de l'état. Les méthodes ForUpdate n'ont rien de spécial
// à faire : le verrou global EST le verrou de ligne.
type memoryTx struct {
	store *MemoryStore
	state *memState
	done  bool
}

func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.store.state = t.state
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil // no-op après Commit, comme pgx
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// --- COMPTES ---

func (t *memoryTx) SaveAccount(ctx context.Context, account *domain.Account) error {
	for _, a := range t.state.accounts {
		if a.Username == account.Username {
			return domain.ErrUsernameTaken
		}
	}
	t.state.accounts[account.ID] = *account
	return nil
}

func (t *memoryTx) GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return t.state.getAccount(id)
}

func (t *memoryTx) UpdateAccount(ctx context.Context, account *domain.Account) error {
	existing, ok := t.state.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	// Champs de profil uniquement — les compteurs de la ligne restent intacts
	existing.FullName = account.FullName
	existing.AvatarURL = account.AvatarURL
	existing.Role = account.Role
	existing.IsPrivate = account.IsPrivate
	existing.UpdatedAt = account.UpdatedAt
	t.state.accounts[account.ID] = existing
	return nil
}

// --- COMPTEURS ---

func (t *memoryTx) IncFollowing(ctx context.Context, accountID string) error {
	return t.bump(accountID, func(a *domain.Account) { a.FollowingCount++ })
}

func (t *memoryTx) DecFollowing(ctx context.Context, accountID string) error {
	return t.bump(accountID, func(a *domain.Account) {
		if a.FollowingCount > 0 {
			a.FollowingCount--
		}
	})
}

func (t *memoryTx) IncFollower(ctx context.Context, accountID string) error {
	return t.bump(accountID, func(a *domain.Account) { a.FollowerCount++ })
}

func (t *memoryTx) DecFollower(ctx context.Context, accountID string) error {
	return t.bump(accountID, func(a *domain.Account) {
		if a.FollowerCount > 0 {
			a.FollowerCount--
		}
	})
}

func (t *memoryTx) IncRemovedPosts(ctx context.Context, accountID string) error {
	return t.bump(accountID, func(a *domain.Account) { a.RemovedPostCount++ })
}

func (t *memoryTx) bump(accountID string, fn func(*domain.Account)) error {
	a, ok := t.state.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now().UTC()
	t.state.accounts[accountID] = a
	return nil
}

// --- EDGES ---

func (t *memoryTx) CreateEdge(ctx context.Context, edge *domain.Edge) error {
	k := pairKey{edge.FollowerID, edge.FollowingID}
	if _, ok := t.state.edges[k]; ok {
		return domain.ErrAlreadyRelated
	}
	t.state.edges[k] = *edge
	return nil
}

func (t *memoryTx) ApproveEdge(ctx context.Context, followerID, followingID string) error {
	k := pairKey{followerID, followingID}
	e, ok := t.state.edges[k]
	if !ok || !e.IsPending {
		return domain.ErrEdgeNotFound
	}
	e.IsPending = false
	t.state.edges[k] = e
	return nil
}

func (t *memoryTx) DeleteEdge(ctx context.Context, followerID, followingID string) error {
	k := pairKey{followerID, followingID}
	if _, ok := t.state.edges[k]; !ok {
		return domain.ErrEdgeNotFound
	}
	delete(t.state.edges, k)
	return nil
}

func (t *memoryTx) EdgeForUpdate(ctx context.Context, followerID, followingID string) (*domain.Edge, error) {
	e, ok := t.state.edges[pairKey{followerID, followingID}]
	if !ok {
		return nil, domain.ErrEdgeNotFound
	}
	edge := e
	return &edge, nil
}

// --- POSTS / MODÉRATION ---

func (t *memoryTx) SavePost(ctx context.Context, post *domain.Post) error {
	t.state.posts[post.ID] = *post
	return nil
}

func (t *memoryTx) GetPostForUpdate(ctx context.Context, id string) (*domain.Post, error) {
	return t.state.getPost(id)
}

func (t *memoryTx) UpdatePostModeration(ctx context.Context, post *domain.Post) error {
	existing, ok := t.state.posts[post.ID]
	if !ok {
		return domain.ErrPostNotFound
	}
	existing.ReportCount = post.ReportCount
	existing.IsRemoved = post.IsRemoved
	existing.IsPriorityReview = post.IsPriorityReview
	existing.UpdatedAt = post.UpdatedAt
	t.state.posts[post.ID] = existing
	return nil
}

func (t *memoryTx) DeletePost(ctx context.Context, id string) error {
	if _, ok := t.state.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(t.state.posts, id)
	// Cascade : signalements et commentaires du post
	for k := range t.state.reports {
		if k.postID == id {
			delete(t.state.reports, k)
		}
	}
	for cid, c := range t.state.comments {
		if c.PostID == id {
			delete(t.state.comments, cid)
		}
	}
	return nil
}

// --- SIGNALEMENTS ---

func (t *memoryTx) SaveReport(ctx context.Context, report *domain.Report) error {
	k := reportKey{report.PostID, report.ReporterID}
	if _, ok := t.state.reports[k]; ok {
		return domain.ErrDuplicateReport
	}
	t.state.reports[k] = *report
	return nil
}

func (t *memoryTx) ReviewReports(ctx context.Context, postID string, status domain.ReportStatus, reviewerID string, at time.Time) (int, error) {
	n := 0
	for k, r := range t.state.reports {
		if k.postID != postID || r.Status != domain.ReportPending {
			continue
		}
		r.Status = status
		rid := reviewerID
		rat := at
		r.ReviewerID = &rid
		r.ReviewedAt = &rat
		t.state.reports[k] = r
		n++
	}
	return n, nil
}
