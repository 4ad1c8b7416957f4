package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

// postgresTx porte l'unité atomique du moteur. Les méthodes ForUpdate posent
// un verrou de ligne qui tient jusqu'au Commit/Rollback : le check du cap, le
// check de doublon et l'incrément de compteur s'exécutent sous ce verrou.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return translateError(t.tx.Commit(ctx))
}

// Rollback est sans effet après Commit (pgx renvoie ErrTxClosed, qu'on avale).
func (t *postgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return translateError(err)
	}
	return nil
}

// --- COMPTES ---

func (t *postgresTx) SaveAccount(ctx context.Context, account *domain.Account) error {
	q := `
		INSERT INTO accounts (id, username, full_name, avatar_url, role, is_private,
			follower_count, following_count, removed_post_count, created_at, updated_at)
		VALUES (@id, @username, @full_name, @avatar_url, @role, @is_private,
			@follower_count, @following_count, @removed_post_count, @created_at, @updated_at)
	`
	args := pgx.NamedArgs{
		"id":                 account.ID,
		"username":           account.Username,
		"full_name":          account.FullName,
		"avatar_url":         account.AvatarURL,
		"role":               account.Role,
		"is_private":         account.IsPrivate,
		"follower_count":     account.FollowerCount,
		"following_count":    account.FollowingCount,
		"removed_post_count": account.RemovedPostCount,
		"created_at":         account.CreatedAt,
		"updated_at":         account.UpdatedAt,
	}
	if _, err := t.tx.Exec(ctx, q, args); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *postgresTx) GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(t.tx.QueryRow(ctx, q, id))
}

// UpdateAccount n'écrit que les champs de profil. Les compteurs ont leurs
// propres opérations — jamais écrasés par une mise à jour user-facing.
func (t *postgresTx) UpdateAccount(ctx context.Context, account *domain.Account) error {
	q := `
		UPDATE accounts
		SET full_name = @full_name, avatar_url = @avatar_url, role = @role,
			is_private = @is_private, updated_at = @updated_at
		WHERE id = @id
	`
	args := pgx.NamedArgs{
		"id":         account.ID,
		"full_name":  account.FullName,
		"avatar_url": account.AvatarURL,
		"role":       account.Role,
		"is_private": account.IsPrivate,
		"updated_at": account.UpdatedAt,
	}
	tag, err := t.tx.Exec(ctx, q, args)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// --- COMPTEURS ---
// Les décréments sont plafonnés à zéro côté SQL (GREATEST) : un compteur qui
// aurait dérivé après une panne partielle ne passe jamais en négatif.

func (t *postgresTx) IncFollowing(ctx context.Context, accountID string) error {
	return t.bumpCounter(ctx, accountID, `following_count = following_count + 1`)
}

func (t *postgresTx) DecFollowing(ctx context.Context, accountID string) error {
	return t.bumpCounter(ctx, accountID, `following_count = GREATEST(following_count - 1, 0)`)
}

func (t *postgresTx) IncFollower(ctx context.Context, accountID string) error {
	return t.bumpCounter(ctx, accountID, `follower_count = follower_count + 1`)
}

func (t *postgresTx) DecFollower(ctx context.Context, accountID string) error {
	return t.bumpCounter(ctx, accountID, `follower_count = GREATEST(follower_count - 1, 0)`)
}

func (t *postgresTx) IncRemovedPosts(ctx context.Context, accountID string) error {
	return t.bumpCounter(ctx, accountID, `removed_post_count = removed_post_count + 1`)
}

func (t *postgresTx) bumpCounter(ctx context.Context, accountID, setClause string) error {
	q := `UPDATE accounts SET ` + setClause + `, updated_at = NOW() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, accountID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// --- EDGES ---

func (t *postgresTx) CreateEdge(ctx context.Context, edge *domain.Edge) error {
	q := `
		INSERT INTO edges (follower_id, following_id, is_pending, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := t.tx.Exec(ctx, q, edge.FollowerID, edge.FollowingID, edge.IsPending, edge.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *postgresTx) ApproveEdge(ctx context.Context, followerID, followingID string) error {
	q := `UPDATE edges SET is_pending = FALSE WHERE follower_id = $1 AND following_id = $2 AND is_pending`
	tag, err := t.tx.Exec(ctx, q, followerID, followingID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEdgeNotFound
	}
	return nil
}

func (t *postgresTx) DeleteEdge(ctx context.Context, followerID, followingID string) error {
	q := `DELETE FROM edges WHERE follower_id = $1 AND following_id = $2`
	tag, err := t.tx.Exec(ctx, q, followerID, followingID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEdgeNotFound
	}
	return nil
}

func (t *postgresTx) EdgeForUpdate(ctx context.Context, followerID, followingID string) (*domain.Edge, error) {
	q := `
		SELECT follower_id, following_id, is_pending, created_at
		FROM edges
		WHERE follower_id = $1 AND following_id = $2
		FOR UPDATE
	`
	var e domain.Edge
	err := t.tx.QueryRow(ctx, q, followerID, followingID).Scan(&e.FollowerID, &e.FollowingID, &e.IsPending, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEdgeNotFound
		}
		return nil, translateError(err)
	}
	return &e, nil
}

// --- POSTS / MODÉRATION ---

func (t *postgresTx) SavePost(ctx context.Context, post *domain.Post) error {
	q := `
		INSERT INTO posts (id, author_id, content, media_url, report_count,
			is_removed, is_priority_review, created_at, updated_at)
		VALUES (@id, @author_id, @content, @media_url, @report_count,
			@is_removed, @is_priority_review, @created_at, @updated_at)
	`
	args := pgx.NamedArgs{
		"id":                 post.ID,
		"author_id":          post.AuthorID,
		"content":            post.Content,
		"media_url":          post.MediaURL,
		"report_count":       post.ReportCount,
		"is_removed":         post.IsRemoved,
		"is_priority_review": post.IsPriorityReview,
		"created_at":         post.CreatedAt,
		"updated_at":         post.UpdatedAt,
	}
	if _, err := t.tx.Exec(ctx, q, args); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *postgresTx) GetPostForUpdate(ctx context.Context, id string) (*domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 FOR UPDATE`
	return scanPost(t.tx.QueryRow(ctx, q, id))
}

// UpdatePostModeration n'écrit que les champs de modération.
func (t *postgresTx) UpdatePostModeration(ctx context.Context, post *domain.Post) error {
	q := `
		UPDATE posts
		SET report_count = $2, is_removed = $3, is_priority_review = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := t.tx.Exec(ctx, q, post.ID, post.ReportCount, post.IsRemoved, post.IsPriorityReview, post.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (t *postgresTx) DeletePost(ctx context.Context, id string) error {
	// Les signalements et commentaires partent en cascade (FK)
	tag, err := t.tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// --- SIGNALEMENTS ---

func (t *postgresTx) SaveReport(ctx context.Context, report *domain.Report) error {
	q := `
		INSERT INTO reports (post_id, reporter_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := t.tx.Exec(ctx, q, report.PostID, report.ReporterID, report.Reason, report.Status, report.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

// ReviewReports stampe tous les signalements encore pending du post.
func (t *postgresTx) ReviewReports(ctx context.Context, postID string, status domain.ReportStatus, reviewerID string, at time.Time) (int, error) {
	q := `
		UPDATE reports
		SET status = $2, reviewer_id = $3, reviewed_at = $4
		WHERE post_id = $1 AND status = 'pending'
	`
	tag, err := t.tx.Exec(ctx, q, postID, status, reviewerID, at)
	if err != nil {
		return 0, translateError(err)
	}
	return int(tag.RowsAffected()), nil
}
