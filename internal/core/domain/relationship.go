package domain

import "time"

// EdgeState est l'état observable d'une paire ordonnée (follower, following).
type EdgeState string

const (
	EdgeNone     EdgeState = "none"
	EdgePending  EdgeState = "pending"
	EdgeApproved EdgeState = "approved"
)

// Direction sélectionne le sens de lecture d'une liste d'edges approuvés.
type Direction string

const (
	DirectionFollowers Direction = "followers" // qui suit ce compte
	DirectionFollowing Direction = "following" // qui ce compte suit
)

// Edge représente un lien dirigé follower -> following.
// Clé composite (FollowerID, FollowingID) : au plus un edge par paire,
// jamais de self-edge. Un edge supprimé n'existe plus — pas d'historique.
type Edge struct {
	FollowerID  string // celui qui fait l'action
	FollowingID string // celui qui la subit
	IsPending   bool
	CreatedAt   time.Time
}

// NewEdge valide les invariants de la paire avant toute insertion.
func NewEdge(followerID, followingID string, pending bool) (*Edge, error) {
	if followerID == "" || followingID == "" {
		return nil, ErrAccountNotFound
	}
	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	return &Edge{
		FollowerID:  followerID,
		FollowingID: followingID,
		IsPending:   pending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (e *Edge) State() EdgeState {
	if e == nil {
		return EdgeNone
	}
	if e.IsPending {
		return EdgePending
	}
	return EdgeApproved
}
