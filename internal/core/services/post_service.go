package services

import (
	"context"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

type postService struct {
	store      ports.SocialStore
	visibility ports.VisibilityService
}

func NewPostService(store ports.SocialStore, visibility ports.VisibilityService) ports.PostService {
	return &postService{store: store, visibility: visibility}
}

func (s *postService) CreatePost(ctx context.Context, cmd ports.CreatePostCmd) (*domain.Post, error) {
	// L'auteur doit exister
	if _, err := s.store.GetAccount(ctx, cmd.AuthorID); err != nil {
		return nil, err
	}

	post, err := domain.NewPost(cmd.AuthorID, cmd.Content, cmd.MediaURL)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := tx.SavePost(ctx, post); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost applique le Visibility Resolver. Un post retiré par la modération
// n'est visible que par son auteur.
func (s *postService) GetPost(ctx context.Context, viewerID, postID string) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ok, err := s.visibility.CanViewPosts(ctx, viewerID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// On ne révèle pas l'existence du post à qui ne peut pas le voir
		return nil, domain.ErrPostNotFound
	}
	if post.IsRemoved && viewerID != post.AuthorID {
		return nil, domain.ErrPostNotFound
	}

	return post, nil
}

func (s *postService) ListPostsByAuthor(ctx context.Context, viewerID, authorID string, limit, offset int) ([]*domain.Post, error) {
	ok, err := s.visibility.CanViewPosts(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*domain.Post{}, nil
	}

	posts, err := s.store.ListPostsByAuthor(ctx, authorID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}

	// Les posts retirés restent visibles pour l'auteur seul
	if viewerID == authorID {
		return posts, nil
	}
	visible := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if !p.IsRemoved {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// DeletePost : hard delete, réservé à l'auteur. Les signalements du post
// partent avec lui (cascade FK) — pas d'historique orphelin.
func (s *postService) DeletePost(ctx context.Context, callerID, postID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return domain.ErrNotAllowed
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.DeletePost(ctx, postID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AddComment est gardé par CanComment : même règle que la lecture.
func (s *postService) AddComment(ctx context.Context, cmd ports.AddCommentCmd) (*domain.Comment, error) {
	post, err := s.store.GetPost(ctx, cmd.PostID)
	if err != nil {
		return nil, err
	}
	if post.IsRemoved {
		return nil, domain.ErrPostNotFound
	}

	ok, err := s.visibility.CanComment(ctx, cmd.AuthorID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotAllowed
	}

	comment, err := domain.NewComment(cmd.PostID, cmd.AuthorID, cmd.Content)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}
