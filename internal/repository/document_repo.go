package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Status = models.DocumentPending

	query := `INSERT INTO documents (id, user_id, chat_id, file_name, file_path, mime_type, size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.ChatID, d.FileName, d.FilePath, d.MimeType, d.SizeBytes, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT id, user_id, chat_id, file_name, file_path, mime_type, size_bytes, status, content, error_message, created_at, updated_at
		FROM documents WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.ChatID, &d.FileName, &d.FilePath, &d.MimeType, &d.SizeBytes,
		&d.Status, &d.Content, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	return err
}

func (r *DocumentRepo) SaveContent(ctx context.Context, id uuid.UUID, content string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE documents SET content = $1, status = $2, error_message = NULL, updated_at = NOW() WHERE id = $3",
		content, models.DocumentCompleted, id,
	)
	return err
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE documents SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3",
		models.DocumentFailed, errMsg, id,
	)
	return err
}
