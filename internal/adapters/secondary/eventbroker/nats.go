package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

const (
	StreamName = "DUNBAR"

	SubjectFollowRequested = "relations.follow.requested"
	SubjectFollowAccepted  = "relations.follow.accepted"
	SubjectFollowRemoved   = "relations.follow.removed"
	SubjectPostFlagged     = "moderation.post.flagged"
	SubjectPostReviewed    = "moderation.post.reviewed"
)

type NatsBroker struct {
	js jetstream.JetStream
}

// NewNatsBroker initialise la connexion et s'assure que le Stream existe
// (idempotent). Les subjects relations.> et moderation.> sont persistés sur
// disque : le notification-service consomme derrière, à son rythme.
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"relations.>", "moderation.>"},
		Storage:  jetstream.FileStorage,
		Replicas: 1, // 3 en cluster
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

// --- PAYLOADS (contrat implicite avec les consommateurs) ---

type FollowEvent struct {
	FollowerID string    `json:"follower_id"`
	TargetID   string    `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PostFlaggedEvent struct {
	PostID      string    `json:"post_id"`
	ReportCount int       `json:"report_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type PostReviewedEvent struct {
	PostID     string    `json:"post_id"`
	Action     string    `json:"action"` // "approve" | "remove"
	OccurredAt time.Time `json:"occurred_at"`
}

// --- PUBLICATIONS ---

func (n *NatsBroker) PublishFollowRequested(ctx context.Context, followerID, targetID string) error {
	return n.publish(ctx, SubjectFollowRequested, FollowEvent{
		FollowerID: followerID, TargetID: targetID, OccurredAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishFollowAccepted(ctx context.Context, followerID, targetID string) error {
	return n.publish(ctx, SubjectFollowAccepted, FollowEvent{
		FollowerID: followerID, TargetID: targetID, OccurredAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishFollowRemoved(ctx context.Context, followerID, targetID string) error {
	return n.publish(ctx, SubjectFollowRemoved, FollowEvent{
		FollowerID: followerID, TargetID: targetID, OccurredAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishPostFlagged(ctx context.Context, postID string, reportCount int) error {
	return n.publish(ctx, SubjectPostFlagged, PostFlaggedEvent{
		PostID: postID, ReportCount: reportCount, OccurredAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishPostReviewed(ctx context.Context, postID string, action domain.ReviewAction) error {
	return n.publish(ctx, SubjectPostReviewed, PostReviewedEvent{
		PostID: postID, Action: string(action), OccurredAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Injection du trace-id dans les headers NATS : le consommateur pourra
	// rattacher son span à la requête d'origine.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("📢 publishing event", "subject", subject)

	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}
