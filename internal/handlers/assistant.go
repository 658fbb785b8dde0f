package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"chatbot-backend/internal/assistant"
	"chatbot-backend/internal/middleware"
	"chatbot-backend/internal/models"
	"chatbot-backend/internal/repository"
)

type chatLookup interface {
	GetForUser(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error)
}

type sessionPreparer interface {
	Prepare(ctx context.Context, req assistant.SendRequest) (*assistant.Session, error)
}

type AssistantHandler struct {
	orchestrator sessionPreparer
	chats        chatLookup
	catalog      *assistant.Catalog
	registry     *assistant.Registry
	keepalive    time.Duration
}

func NewAssistantHandler(
	orchestrator sessionPreparer,
	chats chatLookup,
	catalog *assistant.Catalog,
	registry *assistant.Registry,
	keepalive time.Duration,
) *AssistantHandler {
	return &AssistantHandler{
		orchestrator: orchestrator,
		chats:        chats,
		catalog:      catalog,
		registry:     registry,
		keepalive:    keepalive,
	}
}

// Send saves the user's message and streams the model's reply as
// server-sent events. Errors found before the stream opens are returned as
// plain JSON; later failures arrive in-band as an error event.
func (h *AssistantHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.AssistantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := middleware.GetUserID(r.Context())

	if req.ChatID != "" {
		chatID, err := uuid.Parse(req.ChatID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		if _, err := h.chats.GetForUser(r.Context(), chatID, userID); err != nil {
			h.sendError(w, r, err)
			return
		}
	}

	session, err := h.orchestrator.Prepare(r.Context(), assistant.SendRequest{
		UserID:  userID,
		ChatID:  req.ChatID,
		Message: req.Message,
		Model:   req.Model,
		IsCloud: req.IsCloud,
	})
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	sse := newSSEWriter(w)
	stop := sse.keepAlive(h.keepalive)
	outcome := session.Run(r.Context(), sse)
	stop()
	sse.close()

	if outcome.AssistantTurn != nil {
		log.Printf("assistant: chat %s: %d chunks, turn %s saved (has_code=%v)",
			req.ChatID, outcome.Chunks, outcome.AssistantTurn.ID, outcome.HasCode)
	}
}

func (h *AssistantHandler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assistant.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationFields(err), r))
	case errors.Is(err, assistant.ErrUnknownBackend):
		writeJSON(w, http.StatusBadRequest, errorResp("UNKNOWN_BACKEND", err.Error(), r))
	case errors.Is(err, assistant.ErrMissingCredential):
		writeJSON(w, http.StatusBadRequest, errorResp("MISSING_CREDENTIAL", err.Error(), r))
	case errors.Is(err, repository.ErrChatNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
	case errors.Is(err, assistant.ErrPersistenceFailure):
		log.Printf("assistant: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("PERSISTENCE_ERROR", "Failed to save message", r))
	default:
		log.Printf("assistant: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// Models lists the catalog, marking which entries have a configured backend.
func (h *AssistantHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.catalog.Models(h.registry),
	})
}
