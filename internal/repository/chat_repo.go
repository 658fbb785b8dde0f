package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, c *models.Chat) error {
	c.ID = uuid.New()
	query := `INSERT INTO chats (id, user_id, title) VALUES ($1, $2, $3) RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Title).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetForUser returns the chat only when it belongs to userID; a chat owned by
// someone else is reported as not found.
func (r *ChatRepo) GetForUser(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	c := &models.Chat{}
	query := `SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = $1 AND user_id = $2`
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID, f models.ChatListFilter) ([]models.Chat, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM chats
		WHERE user_id = $1 AND ($2::text = '' OR title ILIKE '%' || $2::text || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, userID, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	return collectChats(rows)
}

// Search matches the query against chat titles and the content or code of
// any message in the chat.
func (r *ChatRepo) Search(ctx context.Context, userID uuid.UUID, q string) ([]models.Chat, error) {
	query := `SELECT DISTINCT c.id, c.user_id, c.title, c.created_at, c.updated_at
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		WHERE c.user_id = $1
		  AND (c.title ILIKE '%' || $2::text || '%'
		    OR m.content ILIKE '%' || $2::text || '%'
		    OR m.code ILIKE '%' || $2::text || '%')
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, q)
	if err != nil {
		return nil, fmt.Errorf("search chats: %w", err)
	}
	defer rows.Close()

	return collectChats(rows)
}

func collectChats(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]models.Chat, error) {
	chats := []models.Chat{}
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) UpdateTitle(ctx context.Context, chatID, userID uuid.UUID, title string) (*models.Chat, error) {
	c := &models.Chat{}
	query := `UPDATE chats SET title = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, title, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, title, chatID, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes the chat and its messages in one transaction.
func (r *ChatRepo) Delete(ctx context.Context, chatID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete chat: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1 AND user_id = $2)", chatID, userID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrChatNotFound
	}

	if _, err := tx.Exec(ctx, "DELETE FROM messages WHERE chat_id = $1", chatID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM chats WHERE id = $1", chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	return tx.Commit(ctx)
}
