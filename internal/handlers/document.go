package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chatbot-backend/internal/middleware"
	"chatbot-backend/internal/models"
	"chatbot-backend/internal/repository"
	"chatbot-backend/internal/services"
)

const maxDocumentBytes = 25 << 20

type documentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

type jobCreator interface {
	Create(ctx context.Context, j *models.Job) error
}

type jobQueue interface {
	Enqueue(ctx context.Context, job *models.Job) error
}

type DocumentHandler struct {
	docs        documentRepository
	jobs        jobCreator
	queue       jobQueue
	chats       chatLookup
	storagePath string
}

func NewDocumentHandler(docs documentRepository, jobs jobCreator, queue jobQueue, chats chatLookup, storagePath string) *DocumentHandler {
	return &DocumentHandler{docs: docs, jobs: jobs, queue: queue, chats: chats, storagePath: storagePath}
}

// Upload stores the file and queues text extraction. The result is
// reported over the websocket once the worker finishes.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxDocumentBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mimeType, ok := services.SupportedDocumentExts[ext]
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	var chatID *uuid.UUID
	if raw := r.FormValue("chat_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		if _, err := h.chats.GetForUser(r.Context(), id, userID); err != nil {
			if errors.Is(err, repository.ErrChatNotFound) {
				writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
			return
		}
		chatID = &id
	}

	docID := uuid.New()
	relPath := filepath.Join("users", userID.String(), "documents", docID.String()+ext)

	size, err := h.save(file, relPath)
	if err != nil {
		log.Printf("document: save %s: %v", relPath, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	doc := &models.Document{
		ID:        docID,
		UserID:    userID,
		ChatID:    chatID,
		FileName:  filepath.Base(header.Filename),
		FilePath:  relPath,
		MimeType:  mimeType,
		SizeBytes: size,
	}
	if err := h.docs.Create(r.Context(), doc); err != nil {
		log.Printf("document: create record: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create document record", r))
		return
	}

	job := &models.Job{UserID: userID, Type: models.JobDocumentExtraction, DocumentID: doc.ID}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		log.Printf("document: create job: %v", err)
		h.docs.MarkFailed(r.Context(), doc.ID, "failed to schedule extraction")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to schedule extraction", r))
		return
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		log.Printf("document: %v", err)
		h.docs.MarkFailed(r.Context(), doc.ID, "failed to schedule extraction")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to schedule extraction", r))
		return
	}

	writeJSON(w, http.StatusAccepted, models.DocumentUploadResponse{
		DocumentID: doc.ID.String(),
		FileName:   doc.FileName,
		JobID:      job.ID.String(),
		Status:     doc.Status,
	})
}

func (h *DocumentHandler) save(src io.Reader, relPath string) (int64, error) {
	full := filepath.Join(h.storagePath, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, err
	}

	dst, err := os.Create(full)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return 0, err
	}
	return n, nil
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
			return
		}
		log.Printf("document: get %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	if doc.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
