package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Post porte les champs de modération à côté du contenu.
// IsPriorityReview est monotone : posé quand ReportCount atteint le seuil,
// retiré uniquement par une revue admin. IsRemoved n'est JAMAIS posé
// automatiquement, seulement par décision explicite d'un admin.
type Post struct {
	ID               string
	AuthorID         string
	Content          string
	MediaURL         string // URL opaque (object storage externe)
	ReportCount      int
	IsRemoved        bool
	IsPriorityReview bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPost(authorID, content, mediaURL string) (*Post, error) {
	if authorID == "" {
		return nil, ErrAccountNotFound
	}
	if strings.TrimSpace(content) == "" && mediaURL == "" {
		return nil, ErrEmptyContent
	}

	now := time.Now().UTC()
	return &Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   strings.TrimSpace(content),
		MediaURL:  mediaURL,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Comment est volontairement minimal : la seule règle métier qui le
// concerne (qui a le droit de commenter) vit dans le Visibility Resolver.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

func NewComment(postID, authorID, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	return &Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}, nil
}
