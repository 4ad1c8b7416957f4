package reviewqueue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKey = "moderation:priority"

// RedisQueue est la file de revue prioritaire : un Sorted Set scoré par la
// date de flag, pour servir les admins du plus ancien au plus récent.
// La vérité reste le flag is_priority_review en DB — la file n'est qu'un
// index, reconstructible depuis Postgres si Redis repart à vide.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, postID string, flaggedAt time.Time) error {
	return q.client.ZAdd(ctx, queueKey, redis.Z{
		Score:  float64(flaggedAt.Unix()),
		Member: postID,
	}).Err()
}

func (q *RedisQueue) Remove(ctx context.Context, postID string) error {
	return q.client.ZRem(ctx, queueKey, postID).Err()
}

// List renvoie les posts flaggés les plus anciens d'abord (FIFO).
func (q *RedisQueue) List(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.client.ZRange(ctx, queueKey, 0, int64(limit-1)).Result()
}
