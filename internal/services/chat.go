package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/session"
)

// ChatService talks to an OpenAI-compatible chat completion endpoint and
// folds replies into session conversation state.
type ChatService struct {
	endpoint   string
	model      string
	apiKey     string // server-wide fallback credential, may be empty
	httpClient *http.Client
}

func NewChatService(endpoint, model, apiKey string, timeout time.Duration) *ChatService {
	return &ChatService{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire format of the chat completion endpoint.

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int                `json:"index"`
	Message      models.ChatMessage `json:"message"`
	FinishReason string             `json:"finish_reason"`
}

type chatAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type chatCompletionResponse struct {
	Choices []chatChoice  `json:"choices"`
	Error   *chatAPIError `json:"error"`
}

// Ask appends the query to the session history, sends the system preamble
// plus the full retained history to the endpoint, and on success appends the
// assistant reply (evicting the oldest messages past the cap). The user
// message is appended before the call and remains even when the call fails;
// a missing credential fails before anything is appended.
func (s *ChatService) Ask(ctx context.Context, sess *session.Session, query string) (string, error) {
	key := s.resolveKey(sess)
	if key == "" {
		return "", &MissingCredentialError{}
	}

	sess.AppendUser(query)

	messages := make([]models.ChatMessage, 0, session.MaxHistory+1)
	messages = append(messages, models.ChatMessage{
		Role:    models.RoleSystem,
		Content: buildSystemPreamble(sess.LatestResult()),
	})
	messages = append(messages, sess.History()...)

	reply, err := s.complete(ctx, key, messages)
	if err != nil {
		return "", err
	}

	sess.AppendAssistant(reply)
	return reply, nil
}

// Analyze asks the endpoint to narrate a result record. One-shot: it neither
// reads nor mutates the conversation history.
func (s *ChatService) Analyze(ctx context.Context, sess *session.Session, record *models.ResultRecord) (string, error) {
	return s.oneShot(ctx, sess, record, analysisInstruction)
}

// SuggestFollowUps proposes follow-up questions about a result record.
// Independent of the conversation history, like Analyze.
func (s *ChatService) SuggestFollowUps(ctx context.Context, sess *session.Session, record *models.ResultRecord) (string, error) {
	return s.oneShot(ctx, sess, record, followUpInstruction)
}

func (s *ChatService) oneShot(ctx context.Context, sess *session.Session, record *models.ResultRecord, instruction string) (string, error) {
	key := s.resolveKey(sess)
	if key == "" {
		return "", &MissingCredentialError{}
	}

	prompt, err := buildResultPrompt(instruction, record)
	if err != nil {
		return "", err
	}

	return s.complete(ctx, key, []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemInstruction},
		{Role: models.RoleUser, Content: prompt},
	})
}

func (s *ChatService) resolveKey(sess *session.Session) string {
	if key := sess.APIKey(); key != "" {
		return key
	}
	return s.apiKey
}

func (s *ChatService) complete(ctx context.Context, key string, messages []models.ChatMessage) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &RemoteServiceError{Message: fmt.Sprintf("unexpected response from chat endpoint (status %d)", resp.StatusCode)}
	}

	// An error payload is authoritative regardless of HTTP status.
	if parsed.Error != nil {
		return "", &RemoteServiceError{Message: parsed.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteServiceError{Message: fmt.Sprintf("chat endpoint returned status %d", resp.StatusCode)}
	}
	if len(parsed.Choices) == 0 {
		return "", &RemoteServiceError{Message: "chat endpoint returned no choices"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// Prompt construction

const systemInstruction = "You are a physics research assistant for a quantum magnetic field " +
	"optimization console. Explain results in clear language and keep answers grounded in the " +
	"numbers you are given."

const analysisInstruction = "Analyze the following quantum magnetic field optimization result. " +
	"Describe the field configuration, the particle measurements and the quantum state " +
	"percentages, and point out anything notable."

const followUpInstruction = "Given the following quantum magnetic field optimization result, " +
	"suggest three short follow-up questions the user could ask to understand it better. " +
	"Return them as a plain numbered list."

func buildSystemPreamble(record *models.ResultRecord) string {
	var b strings.Builder

	b.WriteString(systemInstruction)

	if record != nil {
		// json.Marshal keeps float64 fields bit-exact; formatting for
		// display is the client's concern.
		if snapshot, err := json.Marshal(record); err == nil {
			b.WriteString("\n\nLatest optimization result:\n")
			b.Write(snapshot)
		}
	}

	return b.String()
}

func buildResultPrompt(instruction string, record *models.ResultRecord) (string, error) {
	snapshot, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result record: %w", err)
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n---RESULT START---\n")
	b.Write(snapshot)
	b.WriteString("\n---RESULT END---\n")

	return b.String(), nil
}
