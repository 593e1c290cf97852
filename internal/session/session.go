// Package session owns the per-user conversation state: the submitted
// configuration, the most recent optimization result and the retained
// chat history. All state lives on the session object itself so handlers
// never share hidden globals.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"quantumfield-backend/internal/models"
)

// MaxHistory caps the retained conversation to the most recent messages,
// counting user and assistant turns together.
const MaxHistory = 10

type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu      sync.Mutex
	config  models.Configuration
	result  *models.ResultRecord
	history []models.ChatMessage
}

func New(cfg models.Configuration) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		config:    cfg,
	}
}

// APIKey returns the credential supplied with the session configuration.
func (s *Session) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.APIKey
}

func (s *Session) Config() models.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetUploadedData attaches parsed upload data to the session configuration.
func (s *Session) SetUploadedData(data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.UploadedData = data
}

// SetResult replaces the latest result. Records are never mutated after
// creation; only the reference is swapped.
func (s *Session) SetResult(r *models.ResultRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
}

func (s *Session) LatestResult() *models.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// AppendUser records the asking turn. It happens synchronously at call time,
// so concurrent asks append their user messages in call order.
func (s *Session) AppendUser(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, models.ChatMessage{Role: models.RoleUser, Content: content})
}

// AppendAssistant records a completed reply and evicts the oldest messages
// until the history holds at most MaxHistory entries.
func (s *Session) AppendAssistant(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, models.ChatMessage{Role: models.RoleAssistant, Content: content})
	if excess := len(s.history) - MaxHistory; excess > 0 {
		s.history = append([]models.ChatMessage(nil), s.history[excess:]...)
	}
}

// History returns a copy of the retained conversation.
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
