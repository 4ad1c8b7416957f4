package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// DefaultReportThreshold : nombre de signalements distincts à partir duquel
// un post passe en revue prioritaire.
const DefaultReportThreshold = 5

type moderationService struct {
	store     ports.SocialStore
	events    ports.EventPublisher
	queue     ports.ReviewQueue
	threshold int
}

func NewModerationService(store ports.SocialStore, events ports.EventPublisher, queue ports.ReviewQueue, threshold int) ports.ModerationService {
	if threshold <= 0 {
		threshold = DefaultReportThreshold
	}
	return &moderationService{store: store, events: events, queue: queue, threshold: threshold}
}

// SubmitReport : insert du signalement + incrément du compteur + flag de
// seuil, le tout dans UNE transaction. Le flag est monotone — une fois posé,
// seule une revue admin le retire.
func (s *moderationService) SubmitReport(ctx context.Context, cmd ports.SubmitReportCmd) (*domain.Post, error) {
	reason, err := domain.ParseReportReason(cmd.Reason)
	if err != nil {
		return nil, err
	}
	if cmd.ReporterID == "" {
		return nil, domain.ErrAccountNotFound
	}

	// Le reporter doit exister (la couche session fournit l'ID, on revalide quand même)
	if _, err := s.store.GetAccount(ctx, cmd.ReporterID); err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	post, err := tx.GetPostForUpdate(ctx, cmd.PostID)
	if err != nil {
		return nil, err
	}

	// La contrainte UNIQUE (post_id, reporter_id) ferme la course du double
	// signalement ; le repo traduit la violation en ErrDuplicateReport.
	report := domain.NewReport(cmd.PostID, cmd.ReporterID, reason)
	if err := tx.SaveReport(ctx, report); err != nil {
		return nil, err
	}

	post.ReportCount++
	crossed := !post.IsPriorityReview && post.ReportCount >= s.threshold
	if crossed {
		post.IsPriorityReview = true
	}
	post.UpdatedAt = time.Now().UTC()

	if err := tx.UpdatePostModeration(ctx, post); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if crossed {
		// File Redis + événement : vues dénormalisées, best effort après commit
		if err := s.queue.Push(ctx, post.ID, post.UpdatedAt); err != nil {
			slog.Warn("⚠️ review queue push failed", "post_id", post.ID, "error", err)
		}
		if err := s.events.PublishPostFlagged(ctx, post.ID, post.ReportCount); err != nil {
			slog.Warn("⚠️ event publish failed", "event", "post.flagged", "error", err)
		}
	}

	return post, nil
}

// ReviewPost applique la décision terminale d'un admin sur le post ET sur
// tous ses signalements. "approve" ne remet PAS report_count à zéro : le
// signal historique est conservé.
func (s *moderationService) ReviewPost(ctx context.Context, cmd ports.ReviewPostCmd) error {
	action, err := domain.ParseReviewAction(cmd.Action)
	if err != nil {
		return err
	}

	admin, err := s.store.GetAccount(ctx, cmd.AdminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return domain.ErrNotAllowed
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	post, err := tx.GetPostForUpdate(ctx, cmd.PostID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	wasRemoved := post.IsRemoved

	post.IsRemoved = action == domain.ReviewRemove
	post.IsPriorityReview = false
	post.UpdatedAt = now

	if err := tx.UpdatePostModeration(ctx, post); err != nil {
		return err
	}

	status := domain.ReportReviewedOk
	if action == domain.ReviewRemove {
		status = domain.ReportRemoved
	}
	if _, err := tx.ReviewReports(ctx, cmd.PostID, status, cmd.AdminID, now); err != nil {
		return err
	}

	// Tally de contenu retiré sur l'auteur (une seule fois par post)
	if action == domain.ReviewRemove && !wasRemoved {
		if err := tx.IncRemovedPosts(ctx, post.AuthorID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if err := s.queue.Remove(ctx, post.ID); err != nil {
		slog.Warn("⚠️ review queue remove failed", "post_id", post.ID, "error", err)
	}
	if err := s.events.PublishPostReviewed(ctx, post.ID, action); err != nil {
		slog.Warn("⚠️ event publish failed", "event", "post.reviewed", "error", err)
	}

	return nil
}

// ListPriorityQueue lit la file Redis puis hydrate depuis la DB
// (la DB reste la source de vérité : un post disparu est simplement sauté).
func (s *moderationService) ListPriorityQueue(ctx context.Context, callerID string, limit int) ([]*domain.Post, error) {
	caller, err := s.store.GetAccount(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, domain.ErrNotAllowed
	}

	ids, err := s.queue.List(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(ids))
	for _, id := range ids {
		post, err := s.store.GetPost(ctx, id)
		if err != nil {
			continue // post supprimé entre temps
		}
		posts = append(posts, post)
	}
	return posts, nil
}
