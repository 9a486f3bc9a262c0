package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// CleanupQueueName is the Redis list holding render IDs whose temporary
// upload asset is pending deletion.
const CleanupQueueName = "reel:cleanup"

type RedisQueue struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisQueue(rdb *redis.Client, queueName string) *RedisQueue {
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Push enqueues a render ID for asset cleanup.
func (q *RedisQueue) Push(ctx context.Context, renderID string) error {
	return q.rdb.LPush(ctx, q.queueName, renderID).Err()
}

// Pop blocks until an element exists (BRPOP).
func (q *RedisQueue) Pop(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, 0, q.queueName).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}
