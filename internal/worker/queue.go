package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"chatbot-backend/internal/models"
)

const DocumentQueue = "queue:document-extraction"

// Queue pushes jobs onto the Redis list the pool pops from.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.redis.LPush(ctx, queueName(job.Type), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	return nil
}

func queueName(jobType string) string {
	switch jobType {
	case models.JobDocumentExtraction:
		return DocumentQueue
	default:
		return "queue:" + jobType
	}
}
