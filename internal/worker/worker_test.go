package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

func newTestPool(t *testing.T, hub *websocket.Hub) *WorkerPool {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWorkerPool(client, 2, hub)
}

func TestWorkerPool_DeliversStatusChangedToRoom(t *testing.T) {
	hub := websocket.NewHub("ADMIN_MONITOR", false)
	defer hub.Close()
	wp := newTestPool(t, hub)

	watcher := websocket.NewClient("sess-1", nil, 16)
	watcher.Identify("tenant", "Tenant", room.RoleTenant)
	hub.Register("SUPPORT_t1", watcher)

	producer := queue.NewProducer(wp.Redis)
	job := queue.NewJob(queue.JobNotifyStatusChanged, queue.StatusChangedPayload{
		RoomID:    "SUPPORT_t1",
		Entity:    "ticket",
		EntityID:  "t1",
		OldStatus: "open",
		NewStatus: "resolved",
		ChangedBy: "mgr",
	}, queue.PriorityNormal, 3, time.Minute)
	require.NoError(t, producer.Enqueue(context.Background(), job))

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)
	defer func() {
		cancel()
		wp.Wait()
	}()

	select {
	case raw := <-watcher.Send:
		var ev websocket.ServerEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, websocket.EventStatusChanged, ev.Type)
		assert.Equal(t, "resolved", ev.Data["status"])
		assert.Equal(t, "open", ev.Data["old_status"])
		assert.Equal(t, "mgr", ev.Data["changed_by"])
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for status event")
	}
}

func TestWorkerPool_PollerBacksOffOnRedisError(t *testing.T) {
	hub := websocket.NewHub("ADMIN_MONITOR", false)
	defer hub.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	wp := NewWorkerPool(client, 1, hub)

	watcher := websocket.NewClient("sess-1", nil, 16)
	watcher.Identify("tenant", "Tenant", room.RoleTenant)
	hub.Register("SUPPORT_t1", watcher)

	mr.SetError("redis is down")

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)
	defer func() {
		cancel()
		wp.Wait()
	}()

	// let the poller hit the error branch at least once
	time.Sleep(100 * time.Millisecond)
	start := time.Now()
	mr.SetError("")

	producer := queue.NewProducer(wp.Redis)
	job := queue.NewJob(queue.JobNotifyStatusChanged, queue.StatusChangedPayload{
		RoomID: "SUPPORT_t1", Entity: "ticket", EntityID: "t1", NewStatus: "resolved",
	}, queue.PriorityNormal, 3, time.Minute)
	require.NoError(t, producer.Enqueue(ctx, job))

	select {
	case <-watcher.Send:
		// the poller sleeps after an error instead of spinning, so
		// recovery cannot be instantaneous
		assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Fatal("poller never recovered after the redis error cleared")
	}
}

func TestRequeueOrBury_RetriesWithBackoff(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob(queue.JobInquiryAlert, queue.InquiryAlertPayload{}, queue.PriorityNormal, 3, time.Minute)
	wp.requeueOrBury(ctx, job, errors.New("hub unavailable"))

	count, err := wp.Redis.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	popped, err := wp.Redis.ZPopMin(ctx, queue.QueueKey, 1).Result()
	require.NoError(t, err)
	require.Len(t, popped, 1)

	var requeued queue.Job
	require.NoError(t, json.Unmarshal([]byte(popped[0].Member.(string)), &requeued))
	assert.Equal(t, 1, requeued.Retry)
	assert.Equal(t, "hub unavailable", requeued.ErrorMsg)
	assert.Greater(t, requeued.NextRetryAt, time.Now().Unix())
}

func TestRequeueOrBury_ExhaustedRetriesGoToDLQ(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob(queue.JobInquiryAlert, queue.InquiryAlertPayload{}, queue.PriorityNormal, 3, time.Minute)
	job.Retry = 2

	wp.requeueOrBury(ctx, job, errors.New("still failing"))

	queued, err := wp.Redis.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, queued)

	buried, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), buried)

	raw, err := wp.Redis.LPop(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	var dead queue.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &dead))
	assert.Equal(t, 3, dead.Retry)
}

func TestRequeueOrBury_ExpiredJobGoesToDLQ(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob(queue.JobInquiryAlert, queue.InquiryAlertPayload{}, queue.PriorityNormal, 5, time.Minute)
	job.ExpireAt = time.Now().Add(-time.Minute).Unix()

	wp.requeueOrBury(ctx, job, errors.New("too late"))

	buried, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), buried)
}

func TestProcessDLQJobs_SuccessfulRetryLeavesQueueEmpty(t *testing.T) {
	hub := websocket.NewHub("ADMIN_MONITOR", false)
	defer hub.Close()
	wp := newTestPool(t, hub)
	ctx := context.Background()

	job := queue.NewJob(queue.JobNotifyStatusChanged, queue.StatusChangedPayload{
		RoomID: "SUPPORT_t1", Entity: "ticket", EntityID: "t1", NewStatus: "closed",
	}, queue.PriorityNormal, 3, time.Minute)
	jobBytes, _ := json.Marshal(job)
	require.NoError(t, wp.Redis.RPush(ctx, queue.DLQKey, jobBytes).Err())

	wp.processDLQJobs(ctx)

	left, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestProcessDLQJobs_FailingJobGoesBackToTail(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob("unknown_type", nil, queue.PriorityNormal, 3, time.Minute)
	jobBytes, _ := json.Marshal(job)
	require.NoError(t, wp.Redis.RPush(ctx, queue.DLQKey, jobBytes).Err())

	// One tick grants exactly one attempt; the re-added job must not be
	// re-popped by the same batch loop.
	wp.processDLQJobs(ctx)

	raw, err := wp.Redis.LPop(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	var retried queue.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &retried))
	assert.Equal(t, 1, retried.Retry)
}

func TestProcessDLQJobs_OneAttemptPerTick(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob("unknown_type", nil, queue.PriorityNormal, 3, time.Minute)
	jobBytes, _ := json.Marshal(job)
	require.NoError(t, wp.Redis.RPush(ctx, queue.DLQKey, jobBytes).Err())

	// Three ticks: three attempts, job still alive with budget left.
	for i := 0; i < 3; i++ {
		wp.processDLQJobs(ctx)
	}

	left, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), left)

	raw, err := wp.Redis.LPop(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	var retried queue.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &retried))
	assert.Equal(t, 3, retried.Retry)
}

func TestProcessDLQJobs_PoisonJobDroppedAfterBudget(t *testing.T) {
	wp := newTestPool(t, nil)
	ctx := context.Background()

	job := queue.NewJob("unknown_type", nil, queue.PriorityNormal, 3, time.Minute)
	job.Retry = 5 // MaxRetry + dlqMaxRetry - 1
	jobBytes, _ := json.Marshal(job)
	require.NoError(t, wp.Redis.RPush(ctx, queue.DLQKey, jobBytes).Err())

	wp.processDLQJobs(ctx)

	left, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Zero(t, left)
}
