package redis

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	goredis "github.com/redis/go-redis/v9"
)

// photoQueue keeps orphaned photo paths in a Redis set so repeated failures
// for the same path are stored once.
type photoQueue struct {
	client *goredis.Client
	key    string
}

func NewPhotoCleanupQueue(client *goredis.Client, key string) attendance.PhotoCleanupQueue {
	if key == "" {
		key = "attendance:orphaned_photos"
	}
	return &photoQueue{client: client, key: key}
}

// Enqueue implements attendance.PhotoCleanupQueue.
func (q *photoQueue) Enqueue(ctx context.Context, path string) error {
	if err := q.client.SAdd(ctx, q.key, path).Err(); err != nil {
		return fmt.Errorf("failed to enqueue orphaned photo: %w", err)
	}
	return nil
}

// Dequeue implements attendance.PhotoCleanupQueue.
func (q *photoQueue) Dequeue(ctx context.Context, limit int64) ([]string, error) {
	paths, err := q.client.SPopN(ctx, q.key, limit).Result()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("failed to dequeue orphaned photos: %w", err)
	}
	return paths, nil
}
