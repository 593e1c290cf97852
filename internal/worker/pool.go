package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"quantumfield-backend/internal/metrics"
	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/services"
	"quantumfield-backend/internal/session"
)

const optimizationQueue = "queue:optimization"

// Pool consumes optimization jobs from the Redis queue, runs them and
// publishes the outcome on the session's update channel.
type Pool struct {
	redis       *redis.Client
	optimizer   *services.OptimizerService
	fieldData   *services.FieldDataService
	sessions    *session.Store
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	optimizer *services.OptimizerService,
	fieldData *services.FieldDataService,
	sessions *session.Store,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		optimizer:   optimizer,
		fieldData:   fieldData,
		sessions:    sessions,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, optimizationQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Guard against duplicate delivery
		lockKey := "job_lock:" + job.ID.String()
		acquired, err := p.redis.SetNX(ctx, lockKey, "1", 5*time.Minute).Result()
		if err != nil || !acquired {
			continue
		}

		p.process(ctx, id, &job)
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, id int, job *models.Job) {
	start := time.Now()

	sess, ok := p.sessions.Get(job.SessionID)
	if !ok {
		log.Printf("Worker %d: session %s gone, dropping job %s", id, job.SessionID, job.ID)
		p.publishError(ctx, job, "NOT_FOUND", "Session no longer exists")
		metrics.OptimizationsTotal.WithLabelValues("async", "failed").Inc()
		return
	}

	field := p.fieldData.Combine(ctx)

	record, err := p.optimizer.Generate(ctx, job.ID, job.SessionID, sess.Config(), field)
	if err != nil {
		log.Printf("Worker %d: optimization job %s failed: %v", id, job.ID, err)
		code := "INTERNAL_ERROR"
		var invalid *services.InvalidConfigurationError
		if errors.As(err, &invalid) {
			code = "VALIDATION_ERROR"
		}
		p.publishError(ctx, job, code, err.Error())
		metrics.OptimizationsTotal.WithLabelValues("async", "failed").Inc()
		return
	}

	sess.SetResult(record)

	p.optimizer.PublishUpdate(ctx, job.SessionID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:     job.ID,
			SessionID: job.SessionID,
		},
	})

	metrics.OptimizationsTotal.WithLabelValues("async", "completed").Inc()
	metrics.OptimizationDuration.Observe(time.Since(start).Seconds())
}

func (p *Pool) publishError(ctx context.Context, job *models.Job, code, message string) {
	p.optimizer.PublishUpdate(ctx, job.SessionID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			SessionID:    job.SessionID,
			ErrorCode:    code,
			ErrorMessage: message,
		},
	})
}
