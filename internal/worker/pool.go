package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"chatbot-backend/internal/models"
	"chatbot-backend/internal/services"
)

const defaultMaxRetries = 3

type documentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveContent(ctx context.Context, id uuid.UUID, content string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

type jobStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type textExtractor interface {
	ExtractTextFromPath(path string) (string, error)
}

type documentNotifier interface {
	DocumentProcessed(ctx context.Context, userID uuid.UUID, documentID uuid.UUID, status string, errMsg string)
}

// Pool runs document extraction jobs popped from Redis.
type Pool struct {
	redis       *redis.Client
	docs        documentStore
	jobs        jobStore
	extractor   textExtractor
	notifier    documentNotifier
	storagePath string
	workerCount int

	// requeue schedules a failed job to be pushed again after a delay.
	requeue func(job *models.Job, after time.Duration)

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	docs documentStore,
	jobs jobStore,
	extractor textExtractor,
	notifier documentNotifier,
	storagePath string,
	workerCount int,
) *Pool {
	p := &Pool{
		redis:       redisClient,
		docs:        docs,
		jobs:        jobs,
		extractor:   extractor,
		notifier:    notifier,
		storagePath: storagePath,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
	queue := NewQueue(redisClient)
	p.requeue = func(job *models.Job, after time.Duration) {
		time.AfterFunc(after, func() {
			if err := queue.Enqueue(context.Background(), job); err != nil {
				log.Printf("worker: requeue job %s: %v", job.ID, err)
			}
		})
	}
	return p
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 5*time.Second, DocumentQueue).Result()
		if err != nil || len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)
		p.run(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) run(ctx context.Context, job *models.Job) {
	p.jobs.UpdateStatus(ctx, job.ID, models.DocumentProcessing)

	var err error
	switch job.Type {
	case models.JobDocumentExtraction:
		err = p.extractDocument(ctx, job)
	default:
		err = fmt.Errorf("%w: unknown job type %q", errPermanent, job.Type)
	}

	if err != nil {
		p.handleFailure(ctx, job, err)
		return
	}

	p.jobs.UpdateStatus(ctx, job.ID, models.DocumentCompleted)
	p.notifier.DocumentProcessed(ctx, job.UserID, job.DocumentID, models.DocumentCompleted, "")
	log.Printf("Job %s completed successfully", job.ID)
}

var errPermanent = errors.New("permanent failure")

func (p *Pool) extractDocument(ctx context.Context, job *models.Job) error {
	doc, err := p.docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("%w: failed to get document: %w", errPermanent, err)
	}

	p.docs.UpdateStatus(ctx, doc.ID, models.DocumentProcessing)

	text, err := p.extractor.ExtractTextFromPath(filepath.Join(p.storagePath, doc.FilePath))
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedDocument) || errors.Is(err, services.ErrEmptyDocument) {
			return fmt.Errorf("%w: %w", errPermanent, err)
		}
		return fmt.Errorf("failed to extract %s: %w", doc.FileName, err)
	}

	if err := p.docs.SaveContent(ctx, doc.ID, text); err != nil {
		return fmt.Errorf("failed to save extracted text: %w", err)
	}

	log.Printf("Extracted document %s (%d chars)", doc.ID, len(text))
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if !errors.Is(err, errPermanent) && job.RetryCount < maxRetries {
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		log.Printf("Job %s failed (attempt %d): %s, retrying in %s", job.ID, job.RetryCount, errMsg, backoff)
		p.jobs.UpdateStatus(ctx, job.ID, models.DocumentPending)
		p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
		p.requeue(job, backoff)
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobs.UpdateStatus(ctx, job.ID, models.DocumentFailed)
	p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	p.docs.MarkFailed(ctx, job.DocumentID, errMsg)
	p.notifier.DocumentProcessed(ctx, job.UserID, job.DocumentID, models.DocumentFailed, errMsg)
}
