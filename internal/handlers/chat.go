package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"chatbot-backend/internal/middleware"
	"chatbot-backend/internal/models"
	"chatbot-backend/internal/repository"
)

type chatRepository interface {
	Create(ctx context.Context, c *models.Chat) error
	GetForUser(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f models.ChatListFilter) ([]models.Chat, error)
	Search(ctx context.Context, userID uuid.UUID, q string) ([]models.Chat, error)
	UpdateTitle(ctx context.Context, chatID, userID uuid.UUID, title string) (*models.Chat, error)
	Delete(ctx context.Context, chatID, userID uuid.UUID) error
}

type turnLister interface {
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Turn, error)
}

type ChatHandler struct {
	chats    chatRepository
	messages turnLister
}

func NewChatHandler(chats chatRepository, messages turnLister) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages}
}

func validateTitle(title string) error {
	return validation.Validate(title,
		validation.Required.Error("Title is required"),
		validation.RuneLength(1, 255).Error("Title must be at most 255 characters"),
	)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	filter := models.ChatListFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  queryInt(r, "limit", 50, 1, 100),
		Offset: queryInt(r, "offset", 0, 0, 1<<30),
	}

	chats, err := h.chats.ListByUser(r.Context(), userID, filter)
	if err != nil {
		log.Printf("chat: list for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list chats", r))
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateTitle(req.Title); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"title": err.Error()}, r))
		return
	}

	chat := &models.Chat{UserID: middleware.GetUserID(r.Context()), Title: req.Title}
	if err := h.chats.Create(r.Context(), chat); err != nil {
		log.Printf("chat: create: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create chat", r))
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	chat, err := h.chats.GetForUser(r.Context(), chatID, middleware.GetUserID(r.Context()))
	if err != nil {
		h.chatError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) Update(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateTitle(req.Title); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"title": err.Error()}, r))
		return
	}

	chat, err := h.chats.UpdateTitle(r.Context(), chatID, middleware.GetUserID(r.Context()), req.Title)
	if err != nil {
		h.chatError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	if err := h.chats.Delete(r.Context(), chatID, middleware.GetUserID(r.Context())); err != nil {
		h.chatError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search matches chat titles and the content and code of their turns.
func (h *ChatHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"query": "Query is required"}, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	chats, err := h.chats.Search(r.Context(), userID, q)
	if err != nil {
		log.Printf("chat: search for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Search failed", r))
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

// Messages returns the full transcript of a chat, oldest first.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.chats.GetForUser(r.Context(), chatID, middleware.GetUserID(r.Context())); err != nil {
		h.chatError(w, r, err)
		return
	}

	turns, err := h.messages.ListByChat(r.Context(), chatID)
	if err != nil {
		log.Printf("chat: messages for %s: %v", chatID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load messages", r))
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": turns})
}

func (h *ChatHandler) chatError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrChatNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}
	log.Printf("chat: %s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return uuid.Nil, false
	}
	return id, true
}
