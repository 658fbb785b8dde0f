package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentPending    = "pending"
	DocumentProcessing = "processing"
	DocumentCompleted  = "completed"
	DocumentFailed     = "failed"
)

type Document struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ChatID       *uuid.UUID `json:"chat_id"`
	FileName     string     `json:"file_name"`
	FilePath     string     `json:"-"`
	MimeType     string     `json:"mime_type"`
	SizeBytes    int64      `json:"size_bytes"`
	Status       string     `json:"status"`
	Content      *string    `json:"content,omitempty"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type DocumentUploadResponse struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
}
