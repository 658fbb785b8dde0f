package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateChatRequest struct {
	Title string `json:"title"`
}

type UpdateChatRequest struct {
	Title string `json:"title"`
}

type ChatListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// Turn is one persisted message of a chat. Code is only set on assistant
// turns whose reply contained a fenced block.
type Turn struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Code      *string   `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// AssistantRequest is the body of POST /assistant/send.
type AssistantRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
	Model   string `json:"model"`
	IsCloud bool   `json:"is_cloud"`
}
