package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"quantumfield-backend/internal/metrics"
	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/session"
)

type ChatHandler struct {
	sessions    *session.Store
	chatService chatService
}

type chatService interface {
	Ask(ctx context.Context, sess *session.Session, query string) (string, error)
	Analyze(ctx context.Context, sess *session.Session, record *models.ResultRecord) (string, error)
	SuggestFollowUps(ctx context.Context, sess *session.Session, record *models.ResultRecord) (string, error)
}

func NewChatHandler(sessions *session.Store, chatService chatService) *ChatHandler {
	return &ChatHandler{
		sessions:    sessions,
		chatService: chatService,
	}
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		return
	}

	start := time.Now()
	reply, err := h.chatService.Ask(r.Context(), sess, req.Message)
	metrics.ChatRequestDuration.WithLabelValues("ask").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("ask", "failed").Inc()
		handleServiceError(w, r, err)
		return
	}

	metrics.ChatRequestsTotal.WithLabelValues("ask", "ok").Inc()
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

func (h *ChatHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.narrate(w, r, "analyze", h.chatService.Analyze)
}

func (h *ChatHandler) SuggestFollowUps(w http.ResponseWriter, r *http.Request) {
	h.narrate(w, r, "follow_ups", h.chatService.SuggestFollowUps)
}

func (h *ChatHandler) narrate(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	fn func(context.Context, *session.Session, *models.ResultRecord) (string, error),
) {
	sess, ok := lookupSession(w, r, h.sessions)
	if !ok {
		return
	}

	record := sess.LatestResult()
	if record == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Run an optimization before requesting analysis", r))
		return
	}

	start := time.Now()
	reply, err := fn(r.Context(), sess, record)
	metrics.ChatRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(operation, "failed").Inc()
		handleServiceError(w, r, err)
		return
	}

	metrics.ChatRequestsTotal.WithLabelValues(operation, "ok").Inc()
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}
