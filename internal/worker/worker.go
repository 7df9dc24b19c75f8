package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

type WorkerPool struct {
	Redis      *redis.Client
	WorkerNum  int
	JobChannel chan string
	wg         sync.WaitGroup
	hub        *websocket.Hub
}

func NewWorkerPool(redis *redis.Client, workerNum int, hub *websocket.Hub) *WorkerPool {
	return &WorkerPool{
		Redis:      redis,
		WorkerNum:  workerNum,
		JobChannel: make(chan string, 100),
		hub:        hub,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	log.Info().Msgf("Starting notification worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping notification worker pool")
				return
			default:
				result, err := wp.Redis.ZRangeByScore(ctx, queue.QueueKey, &redis.ZRangeBy{
					Min:    "-inf",
					Max:    "+inf",
					Offset: 0,
					Count:  1,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						log.Error().Err(err).Msg("Worker: failed to pop job")
					}
					// back off so a redis outage does not spin the poller
					time.Sleep(1 * time.Second)
					continue
				}

				if len(result) == 0 {
					time.Sleep(1 * time.Second)
					continue
				}

				payload := result[0]
				// ZRem decides the winner when several poppers race
				removed, err := wp.Redis.ZRem(ctx, queue.QueueKey, payload).Result()
				if err != nil || removed == 0 {
					continue
				}
				wp.JobChannel <- payload
			}
		}
	}()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Worker %d stopping", id)
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}

			var job queue.Job
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				log.Warn().Err(err).Msgf("Worker %d: failed to unmarshal job payload", id)
				continue
			}
			if job.NextRetryAt > time.Now().Unix() {
				// backoff deadline not reached, put it back
				jobBytes, _ := json.Marshal(job)
				wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
					Score:  float64(job.Priority)*1e10 + float64(job.NextRetryAt),
					Member: jobBytes,
				})
				time.Sleep(200 * time.Millisecond)
				continue
			}
			if err := HandleJob(ctx, job, wp.Redis, wp.hub); err != nil {
				wp.requeueOrBury(ctx, job, err)
			}
		}
	}
}

func (wp *WorkerPool) requeueOrBury(ctx context.Context, job queue.Job, cause error) {
	job.Retry++
	job.ErrorMsg = cause.Error()

	now := time.Now().Unix()
	if job.Retry >= job.MaxRetry || now > job.ExpireAt {
		log.Error().Str("job_id", job.ID).Str("type", job.Type).Msg("Job moved to DLQ")
		dlqBytes, _ := json.Marshal(job)
		wp.Redis.RPush(ctx, queue.DLQKey, dlqBytes)
		sendDLA(job)
		return
	}

	// exponential backoff
	delay := time.Duration(5*(1<<job.Retry)) * time.Second
	retryAt := time.Now().Add(delay).Unix()
	job.NextRetryAt = retryAt

	jobBytes, _ := json.Marshal(job)
	wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
		Score:  float64(job.Priority)*1e10 + float64(retryAt),
		Member: jobBytes,
	})
	log.Warn().Str("job_id", job.ID).Msgf("Retrying in %v seconds (%d/%d)", delay.Seconds(), job.Retry, job.MaxRetry)
}

var dlaCache = make(map[string]time.Time)
var dlaMu sync.Mutex

// sendDLA rate-limits dead letter alerts to one per job type per ten
// minutes.
func sendDLA(job queue.Job) {
	dlaMu.Lock()
	defer dlaMu.Unlock()

	now := time.Now()
	lastAlert, ok := dlaCache[job.Type]
	if ok && now.Sub(lastAlert) < 10*time.Minute {
		return
	}

	log.Error().Str("job_id", job.ID).Str("type", job.Type).Str("error", job.ErrorMsg).Msg("Dead Letter Alert: job failed permanently")

	dlaCache[job.Type] = now
}

func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
	log.Info().Msg("All workers have stopped")
}
