package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	QueueKey = "notify_queue"
	DLQKey   = "notify_queue_dlq"
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// score = priority * 1e10 + ExpireAt: high-priority jobs drain
	// first, same-priority jobs drain oldest-deadline first
	score := float64(job.Priority)*1e10 + float64(job.ExpireAt)
	return p.Redis.ZAdd(ctx, QueueKey, redis.Z{
		Score:  score,
		Member: jobBytes,
	}).Err()
}

// NewJob fills the bookkeeping fields so call sites only provide the
// domain parts.
func NewJob(jobType string, payload any, priority, maxRetry int, lifetime time.Duration) Job {
	now := time.Now()
	return Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   MustMarshal(payload),
		Priority:  priority,
		MaxRetry:  maxRetry,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(lifetime).Unix(),
	}
}
