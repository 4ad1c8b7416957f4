package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// DefaultFollowCap : le nombre de Dunbar, la limite dure de relations
// sortantes approuvées par compte.
const DefaultFollowCap = 150

type relationshipService struct {
	store  ports.SocialStore
	events ports.EventPublisher
	cap    int
}

func NewRelationshipService(store ports.SocialStore, events ports.EventPublisher, followCap int) ports.RelationshipService {
	if followCap <= 0 {
		followCap = DefaultFollowCap
	}
	return &relationshipService{store: store, events: events, cap: followCap}
}

// RequestFollow crée l'edge en un seul bloc atomique :
// lock des deux comptes -> check cap -> check doublon -> insert -> compteurs.
// Le cap est relu SOUS verrou, dans la même transaction que l'insert : deux
// requêtes concurrentes ne peuvent pas toutes les deux observer count < CAP.
func (s *relationshipService) RequestFollow(ctx context.Context, followerID, targetID string) (domain.EdgeState, error) {
	if followerID == "" || targetID == "" {
		return domain.EdgeNone, domain.ErrAccountNotFound
	}
	if followerID == targetID {
		return domain.EdgeNone, domain.ErrSelfFollow
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return domain.EdgeNone, err
	}
	defer tx.Rollback(ctx) // no-op après Commit

	follower, target, err := lockPair(ctx, tx, followerID, targetID)
	if err != nil {
		return domain.EdgeNone, err
	}

	// 1. Capacité (évaluée avant la finalisation du check doublon)
	if follower.FollowingCount >= s.cap {
		return domain.EdgeNone, domain.ErrFollowCapReached
	}

	// 2. Doublon : au plus un edge par paire, quel que soit son état
	if _, err := tx.EdgeForUpdate(ctx, followerID, targetID); err == nil {
		return domain.EdgeNone, domain.ErrAlreadyRelated
	} else if !errors.Is(err, domain.ErrEdgeNotFound) {
		return domain.EdgeNone, err
	}

	// 3. Insert : pending si la cible est privée, approuvé sinon
	edge, err := domain.NewEdge(followerID, targetID, target.IsPrivate)
	if err != nil {
		return domain.EdgeNone, err
	}
	if err := tx.CreateEdge(ctx, edge); err != nil {
		return domain.EdgeNone, err
	}

	// 4. Compteurs : uniquement sur le chemin approuvé (un pending ne compte pas)
	if !edge.IsPending {
		if err := tx.IncFollowing(ctx, followerID); err != nil {
			return domain.EdgeNone, err
		}
		if err := tx.IncFollower(ctx, targetID); err != nil {
			return domain.EdgeNone, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.EdgeNone, err
	}

	// 5. Événement (best effort, jamais de rollback après commit)
	if edge.IsPending {
		s.publish(ctx, "follow.requested", s.events.PublishFollowRequested(ctx, followerID, targetID))
	} else {
		s.publish(ctx, "follow.accepted", s.events.PublishFollowAccepted(ctx, followerID, targetID))
	}

	return edge.State(), nil
}

// AcceptFollow : le caller EST la cible (l'autorisation est structurelle).
// Le cap du demandeur est revérifié sous verrou : entre la demande et
// l'acceptation, il a pu remplir son quota ailleurs.
func (s *relationshipService) AcceptFollow(ctx context.Context, callerID, followerID string) error {
	if callerID == "" || followerID == "" {
		return domain.ErrRequestNotFound
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	follower, _, err := lockPair(ctx, tx, followerID, callerID)
	if err != nil {
		return err
	}

	edge, err := tx.EdgeForUpdate(ctx, followerID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrEdgeNotFound) {
			return domain.ErrRequestNotFound
		}
		return err
	}
	if !edge.IsPending {
		return domain.ErrRequestNotFound
	}

	if follower.FollowingCount >= s.cap {
		return domain.ErrFollowCapReached
	}

	if err := tx.ApproveEdge(ctx, followerID, callerID); err != nil {
		return err
	}
	if err := tx.IncFollowing(ctx, followerID); err != nil {
		return err
	}
	if err := tx.IncFollower(ctx, callerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publish(ctx, "follow.accepted", s.events.PublishFollowAccepted(ctx, followerID, callerID))
	return nil
}

// RejectFollow supprime une demande pending. Aucun compteur en jeu.
func (s *relationshipService) RejectFollow(ctx context.Context, callerID, followerID string) error {
	if callerID == "" || followerID == "" {
		return domain.ErrRequestNotFound
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	edge, err := tx.EdgeForUpdate(ctx, followerID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrEdgeNotFound) {
			return domain.ErrRequestNotFound
		}
		return err
	}
	if !edge.IsPending {
		return domain.ErrRequestNotFound
	}

	if err := tx.DeleteEdge(ctx, followerID, callerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Unfollow supprime un edge approuvé et décrémente les deux compteurs
// (plafonnés à zéro côté SQL).
func (s *relationshipService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if err := s.detach(ctx, followerID, targetID); err != nil {
		return err
	}
	s.publish(ctx, "follow.removed", s.events.PublishFollowRemoved(ctx, followerID, targetID))
	return nil
}

// RemoveFollower : même effet que Unfollow mais initié par le compte suivi,
// pour détacher de force un follower.
func (s *relationshipService) RemoveFollower(ctx context.Context, ownerID, followerID string) error {
	if err := s.detach(ctx, followerID, ownerID); err != nil {
		return err
	}
	s.publish(ctx, "follow.removed", s.events.PublishFollowRemoved(ctx, followerID, ownerID))
	return nil
}

// detach factorise Unfollow / RemoveFollower : l'edge doit être Approved.
func (s *relationshipService) detach(ctx context.Context, followerID, followingID string) error {
	if followerID == "" || followingID == "" {
		return domain.ErrNotFollowing
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, _, err := lockPair(ctx, tx, followerID, followingID); err != nil {
		return err
	}

	edge, err := tx.EdgeForUpdate(ctx, followerID, followingID)
	if err != nil {
		if errors.Is(err, domain.ErrEdgeNotFound) {
			return domain.ErrNotFollowing
		}
		return err
	}
	if edge.IsPending {
		// Une demande pending n'est pas un follow actif (reject est le bon chemin)
		return domain.ErrNotFollowing
	}

	if err := tx.DeleteEdge(ctx, followerID, followingID); err != nil {
		return err
	}
	if err := tx.DecFollowing(ctx, followerID); err != nil {
		return err
	}
	if err := tx.DecFollower(ctx, followingID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// --- LECTURES ---

func (s *relationshipService) EdgeState(ctx context.Context, followerID, targetID string) (domain.EdgeState, error) {
	return s.store.EdgeState(ctx, followerID, targetID)
}

func (s *relationshipService) ListFollowers(ctx context.Context, accountID string, limit, offset int) ([]*domain.Account, error) {
	return s.store.ListApproved(ctx, accountID, domain.DirectionFollowers, clampLimit(limit), offset)
}

func (s *relationshipService) ListFollowing(ctx context.Context, accountID string, limit, offset int) ([]*domain.Account, error) {
	return s.store.ListApproved(ctx, accountID, domain.DirectionFollowing, clampLimit(limit), offset)
}

func (s *relationshipService) ListPendingRequests(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	return s.store.ListPending(ctx, ownerID, clampLimit(limit), offset)
}

// --- HELPERS ---

// lockPair verrouille les deux lignes de comptes dans un ordre déterministe
// (par ID croissant) pour éviter le deadlock entre deux workflows croisés
// sur la même paire.
func lockPair(ctx context.Context, tx ports.SocialTx, aID, bID string) (a, b *domain.Account, err error) {
	first, second := aID, bID
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Account, 2)
	for _, id := range []string{first, second} {
		acc, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = acc
	}
	return locked[aID], locked[bID], nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

// publish logue l'échec d'une publication post-commit au lieu de le remonter :
// la donnée est déjà commitée, le client a eu sa réponse.
func (s *relationshipService) publish(ctx context.Context, event string, err error) {
	if err != nil {
		slog.Warn("⚠️ event publish failed", "event", event, "error", err)
	}
}
