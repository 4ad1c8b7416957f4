package ports

import (
	"context"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---
// Des structs plutôt que des listes d'arguments : on pourra ajouter des
// champs optionnels plus tard sans casser les signatures.

type RegisterAccountCmd struct {
	Username  string
	FullName  string
	IsPrivate bool
}

type CreatePostCmd struct {
	AuthorID string
	Content  string
	MediaURL string
}

type AddCommentCmd struct {
	PostID   string
	AuthorID string
	Content  string
}

type SubmitReportCmd struct {
	PostID     string
	ReporterID string
	Reason     string // validé à la frontière via domain.ParseReportReason
}

type ReviewPostCmd struct {
	PostID  string
	AdminID string
	Action  string // "approve" | "remove"
}

// --- PORTS PRIMAIRES (Driving) ---

// RelationshipService est la machine à états du follow :
// Absent -> Pending -> Approved -> Absent, sous cap fixe.
// Le caller (couche session) fournit toujours l'identité authentifiée.
type RelationshipService interface {
	// RequestFollow retourne l'état résultant de l'edge : Pending si la
	// cible est privée, Approved sinon.
	RequestFollow(ctx context.Context, followerID, targetID string) (domain.EdgeState, error)
	AcceptFollow(ctx context.Context, callerID, followerID string) error
	RejectFollow(ctx context.Context, callerID, followerID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	// RemoveFollower : symétrique de Unfollow mais initié par le compte suivi.
	RemoveFollower(ctx context.Context, ownerID, followerID string) error

	EdgeState(ctx context.Context, followerID, targetID string) (domain.EdgeState, error)
	ListFollowers(ctx context.Context, accountID string, limit, offset int) ([]*domain.Account, error)
	ListFollowing(ctx context.Context, accountID string, limit, offset int) ([]*domain.Account, error)
	ListPendingRequests(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
}

// VisibilityService décide qui voit quoi. Règle unique : le propriétaire
// toujours, sinon uniquement un edge Approved viewer -> owner.
type VisibilityService interface {
	CanViewPosts(ctx context.Context, viewerID, ownerID string) (bool, error)
	CanComment(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// ModerationService : Submitted -> {ReviewedOk, Removed} par signalement.
type ModerationService interface {
	SubmitReport(ctx context.Context, cmd SubmitReportCmd) (*domain.Post, error)
	ReviewPost(ctx context.Context, cmd ReviewPostCmd) error
	// ListPriorityQueue est réservé aux admins (file Redis triée par date de flag).
	ListPriorityQueue(ctx context.Context, callerID string, limit int) ([]*domain.Post, error)
}

type AccountService interface {
	Register(ctx context.Context, cmd RegisterAccountCmd) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	UpdatePrivacy(ctx context.Context, callerID string, private bool) (*domain.Account, error)
}

type PostService interface {
	CreatePost(ctx context.Context, cmd CreatePostCmd) (*domain.Post, error)
	// GetPost et ListPostsByAuthor appliquent le Visibility Resolver.
	GetPost(ctx context.Context, viewerID, postID string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, viewerID, authorID string, limit, offset int) ([]*domain.Post, error)
	DeletePost(ctx context.Context, callerID, postID string) error
	AddComment(ctx context.Context, cmd AddCommentCmd) (*domain.Comment, error)
}
