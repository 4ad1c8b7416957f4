package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// MemoryStore implémente ports.SocialStore en mémoire, pour les tests et le
// mode local sans Postgres. Le modèle transactionnel est volontairement
// brutal : une transaction prend le verrou exclusif du store et travaille sur
// une copie de l'état ; Commit échange la copie, Rollback la jette. C'est
// sérialisable par construction — exactement le contrat que le moteur attend.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type pairKey struct {
	followerID  string
	followingID string
}

type reportKey struct {
	postID     string
	reporterID string
}

type memState struct {
	accounts map[string]domain.Account
	edges    map[pairKey]domain.Edge
	posts    map[string]domain.Post
	comments map[string]domain.Comment
	reports  map[reportKey]domain.Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func newMemState() *memState {
	return &memState{
		accounts: make(map[string]domain.Account),
		edges:    make(map[pairKey]domain.Edge),
		posts:    make(map[string]domain.Post),
		comments: make(map[string]domain.Comment),
		reports:  make(map[reportKey]domain.Report),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.edges {
		c.edges[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.reports {
		if v.ReviewerID != nil {
			rid := *v.ReviewerID
			v.ReviewerID = &rid
		}
		if v.ReviewedAt != nil {
			rat := *v.ReviewedAt
			v.ReviewedAt = &rat
		}
		c.reports[k] = v
	}
	return c
}

func (s *MemoryStore) BeginTx(ctx context.Context) (ports.SocialTx, error) {
	s.mu.Lock()
	return &memoryTx{store: s, state: s.state.clone()}, nil
}

// --- LECTURES (hors transaction) ---

func (s *MemoryStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAccount(id)
}

func (s *MemoryStore) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.state.accounts {
		if a.Username == username {
			acc := a
			return &acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *MemoryStore) EdgeState(ctx context.Context, followerID, followingID string) (domain.EdgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.state.edges[pairKey{followerID, followingID}]
	if !ok {
		return domain.EdgeNone, nil
	}
	return e.State(), nil
}

func (s *MemoryStore) ListApproved(ctx context.Context, accountID string, dir domain.Direction, limit, offset int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []accountHit
	for k, e := range s.state.edges {
		if e.IsPending {
			continue
		}
		var otherID string
		switch {
		case dir == domain.DirectionFollowers && k.followingID == accountID:
			otherID = k.followerID
		case dir == domain.DirectionFollowing && k.followerID == accountID:
			otherID = k.followingID
		default:
			continue
		}
		if a, ok := s.state.accounts[otherID]; ok {
			hits = append(hits, accountHit{account: a, at: e.CreatedAt})
		}
	}

	return pageHits(hits, limit, offset), nil
}

func (s *MemoryStore) ListPending(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []accountHit
	for k, e := range s.state.edges {
		if !e.IsPending || k.followingID != ownerID {
			continue
		}
		if a, ok := s.state.accounts[k.followerID]; ok {
			hits = append(hits, accountHit{account: a, at: e.CreatedAt})
		}
	}
	return pageHits(hits, limit, offset), nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getPost(id)
}

func (s *MemoryStore) ListPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var posts []domain.Post
	for _, p := range s.state.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })

	if offset >= len(posts) {
		return []*domain.Post{}, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	out := make([]*domain.Post, len(posts))
	for i := range posts {
		p := posts[i]
		out[i] = &p
	}
	return out, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, postID string) ([]*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reports []domain.Report
	for k, r := range s.state.reports {
		if k.postID == postID {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.Before(reports[j].CreatedAt) })

	out := make([]*domain.Report, len(reports))
	for i := range reports {
		r := reports[i]
		out[i] = &r
	}
	return out, nil
}

func (s *MemoryStore) SaveComment(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.posts[comment.PostID]; !ok {
		return domain.ErrPostNotFound
	}
	s.state.comments[comment.ID] = *comment
	return nil
}

// CountComments n'est utilisé que par les tests.
func (s *MemoryStore) CountComments(postID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.state.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// --- HELPERS d'état ---

func (s *memState) getAccount(id string) (*domain.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc := a
	return &acc, nil
}

func (s *memState) getPost(id string) (*domain.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	post := p
	return &post, nil
}

// accountHit associe un compte à la date de l'edge qui l'a sélectionné,
// pour trier comme le SQL : ORDER BY e.created_at DESC.
type accountHit struct {
	account domain.Account
	at      time.Time
}

func pageHits(hits []accountHit, limit, offset int) []*domain.Account {
	sort.Slice(hits, func(i, j int) bool { return hits[i].at.After(hits[j].at) })

	if offset >= len(hits) {
		return []*domain.Account{}
	}
	hits = hits[offset:]
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	out := make([]*domain.Account, len(hits))
	for i := range hits {
		a := hits[i].account
		out[i] = &a
	}
	return out
}
