package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"quantumfield-backend/internal/metrics"
	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/services"
	"quantumfield-backend/internal/session"
)

type SessionHandler struct {
	sessions  *session.Store
	fileParse *services.FileParseService
}

func NewSessionHandler(sessions *session.Store, fileParse *services.FileParseService) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		fileParse: fileParse,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cfg models.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(cfg.ParticleConfig) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "particleConfig is required", r))
		return
	}

	sess := session.New(cfg)
	h.sessions.Put(sess)
	metrics.ActiveSessions.Set(float64(h.sessions.Len()))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":     sess.ID,
		"created_at":     sess.CreatedAt,
		"history_length": sess.HistoryLen(),
		"has_result":     sess.LatestResult() != nil,
	})
}

// Upload attaches a JSON or CSV custom data file to the session.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 10*1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read uploaded file", r))
		return
	}

	parsed, err := h.fileParse.Parse(header.Filename, data)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	sess.SetUploadedData(parsed)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Upload attached to session"})
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return lookupSession(w, r, h.sessions)
}
