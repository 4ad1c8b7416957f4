package ports

import (
	"context"
	"time"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

// --- PERSISTANCE (DB) ---

// SocialStore est le port Driven vers le stockage relationnel.
// Les lectures pures passent directement par le pool ; toute mutation passe
// par une SocialTx : le check et l'écriture qui en dépend ne sont JAMAIS
// séparés en deux allers-retours qu'une opération concurrente pourrait
// entrelacer (course sur le cap, doublon d'edge, seuil de signalements).
type SocialStore interface {
	BeginTx(ctx context.Context) (SocialTx, error)

	// Comptes
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)

	// Edges (lecture)
	EdgeState(ctx context.Context, followerID, followingID string) (domain.EdgeState, error)
	ListApproved(ctx context.Context, accountID string, dir domain.Direction, limit, offset int) ([]*domain.Account, error)
	ListPending(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)

	// Posts / signalements (lecture)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*domain.Post, error)
	ListReports(ctx context.Context, postID string) ([]*domain.Report, error)

	// Commentaires (écriture simple, pas de compteur en jeu)
	SaveComment(ctx context.Context, comment *domain.Comment) error
}

// SocialTx est l'unité atomique du moteur. Tout ce qui est lu via les
// méthodes ForUpdate reste verrouillé jusqu'au Commit/Rollback : c'est ce
// qui ferme la course "deux requêtes lisent count < CAP puis insèrent".
type SocialTx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Comptes
	SaveAccount(ctx context.Context, account *domain.Account) error
	GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error)
	// UpdateAccount n'écrit que les champs de profil (privacy, rôle, noms).
	// Les compteurs ne passent JAMAIS par ici.
	UpdateAccount(ctx context.Context, account *domain.Account) error

	// Compteurs dénormalisés. Les décréments sont plafonnés à zéro côté SQL
	// pour tolérer un compteur qui aurait dérivé après une panne partielle.
	IncFollowing(ctx context.Context, accountID string) error
	DecFollowing(ctx context.Context, accountID string) error
	IncFollower(ctx context.Context, accountID string) error
	DecFollower(ctx context.Context, accountID string) error
	IncRemovedPosts(ctx context.Context, accountID string) error

	// Edges
	CreateEdge(ctx context.Context, edge *domain.Edge) error
	ApproveEdge(ctx context.Context, followerID, followingID string) error
	DeleteEdge(ctx context.Context, followerID, followingID string) error
	EdgeForUpdate(ctx context.Context, followerID, followingID string) (*domain.Edge, error)

	// Posts / modération
	SavePost(ctx context.Context, post *domain.Post) error
	GetPostForUpdate(ctx context.Context, id string) (*domain.Post, error)
	// UpdatePostModeration n'écrit que report_count, is_removed,
	// is_priority_review et updated_at.
	UpdatePostModeration(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, id string) error

	// Signalements
	SaveReport(ctx context.Context, report *domain.Report) error
	// ReviewReports marque tous les signalements du post avec le statut
	// terminal + reviewer + timestamp. Retourne le nombre de lignes touchées.
	ReviewReports(ctx context.Context, postID string, status domain.ReportStatus, reviewerID string, at time.Time) (int, error)
}

// --- MESSAGERIE (BROKER) ---

// EventPublisher notifie le monde extérieur (notification-service, feed).
// Un échec de publication se logue et ne fait JAMAIS échouer la transaction
// qui vient de commiter.
type EventPublisher interface {
	PublishFollowRequested(ctx context.Context, followerID, targetID string) error
	PublishFollowAccepted(ctx context.Context, followerID, targetID string) error
	PublishFollowRemoved(ctx context.Context, followerID, targetID string) error
	PublishPostFlagged(ctx context.Context, postID string, reportCount int) error
	PublishPostReviewed(ctx context.Context, postID string, action domain.ReviewAction) error
}

// --- FILE DE REVUE PRIORITAIRE ---

// ReviewQueue est la vue dénormalisée de la file admin (Redis ZSet).
// La vérité reste le flag is_priority_review en DB ; la file n'est qu'un
// index trié par date de flag.
type ReviewQueue interface {
	Push(ctx context.Context, postID string, flaggedAt time.Time) error
	Remove(ctx context.Context, postID string) error
	List(ctx context.Context, limit int) ([]string, error)
}
