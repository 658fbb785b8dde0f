package models

import (
	"time"

	"github.com/google/uuid"
)

const JobDocumentExtraction = "document-extraction"

type Job struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Type         string     `json:"type"`
	DocumentID   uuid.UUID  `json:"document_id"`
	Status       string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// WebSocket message types
const (
	WSTurnCreated       = "turn_created"
	WSDocumentProcessed = "document_processed"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type TurnCreatedEvent struct {
	ChatID  string `json:"chat_id"`
	TurnID  string `json:"turn_id"`
	HasCode bool   `json:"has_code"`
}

type DocumentProcessedEvent struct {
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
