package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quantumfield-backend/internal/metrics"
	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/services"
	"quantumfield-backend/internal/session"
)

type OptimizeHandler struct {
	sessions  *session.Store
	optimizer *services.OptimizerService
	fieldData *services.FieldDataService
	redis     *redis.Client
}

func NewOptimizeHandler(
	sessions *session.Store,
	optimizer *services.OptimizerService,
	fieldData *services.FieldDataService,
	redisClient *redis.Client,
) *OptimizeHandler {
	return &OptimizeHandler{
		sessions:  sessions,
		optimizer: optimizer,
		fieldData: fieldData,
		redis:     redisClient,
	}
}

// Optimize queues an optimization run; progress and the completion event
// arrive on the session's WebSocket stream.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	job := &models.Job{
		ID:        uuid.New(),
		SessionID: sess.ID,
		Type:      "optimization",
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), "queue:optimization", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue optimization job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue optimization job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.ID,
		"session_id": sess.ID,
	})
}

// OptimizeSync runs the optimization inline and returns the record.
func (h *OptimizeHandler) OptimizeSync(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	start := time.Now()
	field := h.fieldData.Combine(r.Context())

	record, err := h.optimizer.Generate(r.Context(), uuid.New(), sess.ID, sess.Config(), field)
	if err != nil {
		metrics.OptimizationsTotal.WithLabelValues("sync", "failed").Inc()
		handleServiceError(w, r, err)
		return
	}

	sess.SetResult(record)
	metrics.OptimizationsTotal.WithLabelValues("sync", "completed").Inc()
	metrics.OptimizationDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, record)
}

func (h *OptimizeHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	record := sess.LatestResult()
	if record == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No optimization result yet", r))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *OptimizeHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return lookupSession(w, r, h.sessions)
}
