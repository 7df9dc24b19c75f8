package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/queue"
)

// DLQ jobs sit in a plain redis list. The retry consumer drains a small
// batch per tick and gives each job one fresh pass through the normal
// handler; jobs that fail again go back to the tail so the list never
// starves on one poison job.

const (
	dlqRetryInterval = 5 * time.Minute
	dlqBatchSize     = 10
	dlqMaxRetry      = 3
)

func (wp *WorkerPool) StartDLQRetryConsumer(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Msg("DLQ retry consumer started")
		ticker := time.NewTicker(dlqRetryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ retry consumer stopping")
				return
			case <-ticker.C:
				wp.processDLQJobs(ctx)
			}
		}
	}()
}

func (wp *WorkerPool) processDLQJobs(ctx context.Context) {
	// Drain the batch before retrying anything. Failed jobs go back to
	// the tail only after the loop, so one tick gives each job at most
	// one attempt instead of re-popping its own failure.
	payloads := make([]string, 0, dlqBatchSize)
	for i := 0; i < dlqBatchSize; i++ {
		payload, err := wp.Redis.LPop(ctx, queue.DLQKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Error().Err(err).Msg("Failed to pop DLQ job")
			}
			break
		}
		payloads = append(payloads, payload)
	}

	var failed [][]byte
	for _, payload := range payloads {
		var job queue.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			log.Error().Err(err).Msg("Dropping undecodable DLQ job")
			continue
		}

		if err := HandleJob(ctx, job, wp.Redis, wp.hub); err != nil {
			job.Retry++
			job.ErrorMsg = err.Error()
			if job.Retry >= job.MaxRetry+dlqMaxRetry {
				log.Error().Str("job_id", job.ID).Str("type", job.Type).Msg("DLQ job permanently failed, dropping")
				continue
			}
			jobBytes, _ := json.Marshal(job)
			failed = append(failed, jobBytes)
			continue
		}

		log.Info().Str("job_id", job.ID).Str("type", job.Type).Msg("DLQ job successfully retried")
	}

	for _, jobBytes := range failed {
		wp.Redis.RPush(ctx, queue.DLQKey, jobBytes)
	}
}
