package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatRequest is the inbound shape of both the streaming and the
// buffered agent endpoints. Empty mode means auto.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	Mode    string `json:"mode" validate:"omitempty,oneof=auto chat deep_analysis"`
}

type ChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Mode      string    `json:"mode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptMessage is the payload published on the in-process bus so
// persistence happens off the request path.
type TranscriptMessage struct {
	UserId   uuid.UUID `json:"user_id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Mode     string    `json:"mode"`
	AskedAt  time.Time `json:"asked_at"`
}

// AgentRunError surfaces a pipeline run that terminated with an error
// event. The message is already phrased for the end user.
type AgentRunError struct {
	Message string
}

func (e *AgentRunError) Error() string {
	return e.Message
}

// --- Limit Exceeded Error Types ---

// LimitExceededError is a custom error that carries usage details
type LimitExceededError struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *LimitExceededError) Error() string {
	return "daily assistant usage limit exceeded"
}

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
