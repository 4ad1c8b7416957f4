package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

const accountColumns = `id, username, full_name, avatar_url, role, is_private,
	follower_count, following_count, removed_post_count, created_at, updated_at`

const postColumns = `id, author_id, content, media_url, report_count,
	is_removed, is_priority_review, created_at, updated_at`

// PostgresStore implémente ports.SocialStore sur un pool pgx.
// Les lectures passent par le pool ; BeginTx ouvre l'unité atomique.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) BeginTx(ctx context.Context) (ports.SocialTx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return &postgresTx{tx: tx}, nil
}

// --- COMPTES ---

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.db.QueryRow(ctx, q, id))
}

func (s *PostgresStore) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(s.db.QueryRow(ctx, q, username))
}

// --- EDGES ---

func (s *PostgresStore) EdgeState(ctx context.Context, followerID, followingID string) (domain.EdgeState, error) {
	q := `SELECT is_pending FROM edges WHERE follower_id = $1 AND following_id = $2`

	var pending bool
	err := s.db.QueryRow(ctx, q, followerID, followingID).Scan(&pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EdgeNone, nil
		}
		return domain.EdgeNone, translateError(err)
	}
	if pending {
		return domain.EdgePending, nil
	}
	return domain.EdgeApproved, nil
}

// ListApproved renvoie les comptes de l'autre côté des edges approuvés,
// du plus récent au plus ancien.
func (s *PostgresStore) ListApproved(ctx context.Context, accountID string, dir domain.Direction, limit, offset int) ([]*domain.Account, error) {
	var q string
	switch dir {
	case domain.DirectionFollowers:
		q = `
			SELECT ` + prefixColumns("a", accountColumns) + `
			FROM edges e JOIN accounts a ON a.id = e.follower_id
			WHERE e.following_id = $1 AND NOT e.is_pending
			ORDER BY e.created_at DESC
			LIMIT $2 OFFSET $3
		`
	case domain.DirectionFollowing:
		q = `
			SELECT ` + prefixColumns("a", accountColumns) + `
			FROM edges e JOIN accounts a ON a.id = e.following_id
			WHERE e.follower_id = $1 AND NOT e.is_pending
			ORDER BY e.created_at DESC
			LIMIT $2 OFFSET $3
		`
	default:
		return nil, fmt.Errorf("repository: unknown direction %q", dir)
	}

	rows, err := s.db.Query(ctx, q, accountID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (s *PostgresStore) ListPending(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	q := `
		SELECT ` + prefixColumns("a", accountColumns) + `
		FROM edges e JOIN accounts a ON a.id = e.follower_id
		WHERE e.following_id = $1 AND e.is_pending
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// --- POSTS / SIGNALEMENTS ---

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPost(s.db.QueryRow(ctx, q, id))
}

func (s *PostgresStore) ListPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*domain.Post, error) {
	q := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, q, authorID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) ListReports(ctx context.Context, postID string) ([]*domain.Report, error) {
	q := `
		SELECT post_id, reporter_id, reason, status, reviewer_id, reviewed_at, created_at
		FROM reports
		WHERE post_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, q, postID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.PostID, &r.ReporterID, &r.Reason, &r.Status, &r.ReviewerID, &r.ReviewedAt, &r.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) SaveComment(ctx context.Context, comment *domain.Comment) error {
	q := `
		INSERT INTO comments (id, post_id, author_id, content, created_at)
		VALUES (@id, @post_id, @author_id, @content, @created_at)
	`
	args := pgx.NamedArgs{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt,
	}
	if _, err := s.db.Exec(ctx, q, args); err != nil {
		return translateError(err)
	}
	return nil
}

// --- HELPERS ---

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Username, &a.FullName, &a.AvatarURL, &a.Role, &a.IsPrivate,
		&a.FollowerCount, &a.FollowingCount, &a.RemovedPostCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, translateError(err)
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	accounts := []*domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Content, &p.MediaURL, &p.ReportCount,
		&p.IsRemoved, &p.IsPriorityReview, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, translateError(err)
	}
	return &p, nil
}

// prefixColumns réécrit "id, username, ..." en "a.id, a.username, ..."
func prefixColumns(alias, cols string) string {
	out := ""
	for i, c := range splitColumns(cols) {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}

func splitColumns(cols string) []string {
	var out []string
	field := ""
	for _, r := range cols {
		switch r {
		case ',':
			out = append(out, field)
			field = ""
		case ' ', '\n', '\t':
			// espaces ignorés
		default:
			field += string(r)
		}
	}
	if field != "" {
		out = append(out, field)
	}
	return out
}

// translateError traduit les codes PostgreSQL en erreurs du domaine.
// Les pannes passagères (sérialisation avortée, deadlock, lock timeout,
// connexion) deviennent des TransientError retentables.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation — la contrainte dit laquelle
			switch pgErr.ConstraintName {
			case "edges_pkey":
				return domain.ErrAlreadyRelated
			case "reports_pkey":
				return domain.ErrDuplicateReport
			case "accounts_username_key":
				return domain.ErrUsernameTaken
			}
			return domain.ErrAlreadyRelated
		case "40001", "40P01", "55P03": // serialization / deadlock / lock_not_available
			return &domain.TransientError{Err: err}
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection_exception
			return &domain.TransientError{Err: err}
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransientError{Err: err}
	}
	return err
}
