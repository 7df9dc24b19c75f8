package worker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/websocket"
	worker_handler "github.com/thira3721-ai/roomhy/internal/worker/worker-handler"
)

func HandleJob(ctx context.Context, job queue.Job, redis *redis.Client, hub *websocket.Hub) error {
	workerHandler := worker_handler.NewWorkerHandler(ctx, redis, hub)
	switch job.Type {
	case queue.JobNotifyStatusChanged:
		return workerHandler.HandleStatusChanged(job.Payload)
	case queue.JobInquiryAlert:
		return workerHandler.HandleInquiryAlert(job.Payload)
	case queue.JobEscalationAlert:
		return workerHandler.HandleEscalationAlert(job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
