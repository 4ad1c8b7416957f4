package services

import (
	"context"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

type visibilityService struct {
	store ports.SocialStore
}

func NewVisibilityService(store ports.SocialStore) ports.VisibilityService {
	return &visibilityService{store: store}
}

// CanViewPosts : le propriétaire voit toujours son propre contenu. Sinon il
// faut un edge Approved viewer -> owner. Un pending ne donne RIEN, et le flag
// public/privé du propriétaire ne change rien rétroactivement — il ne gouverne
// que la façon dont les nouvelles demandes démarrent.
func (s *visibilityService) CanViewPosts(ctx context.Context, viewerID, ownerID string) (bool, error) {
	return s.resolve(ctx, viewerID, ownerID)
}

// CanComment suit exactement la même règle que la lecture.
func (s *visibilityService) CanComment(ctx context.Context, viewerID, ownerID string) (bool, error) {
	return s.resolve(ctx, viewerID, ownerID)
}

func (s *visibilityService) resolve(ctx context.Context, viewerID, ownerID string) (bool, error) {
	if ownerID == "" {
		return false, domain.ErrAccountNotFound
	}
	if viewerID == ownerID {
		return true, nil
	}

	// Le propriétaire doit exister (distinguer "pas visible" de "pas de compte")
	if _, err := s.store.GetAccount(ctx, ownerID); err != nil {
		return false, err
	}

	state, err := s.store.EdgeState(ctx, viewerID, ownerID)
	if err != nil {
		return false, err
	}
	return state == domain.EdgeApproved, nil
}
