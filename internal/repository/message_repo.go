package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-backend/internal/models"
)

// MessageRepo stores chat turns. Each append is its own commit so a later
// failure in the same request never removes an earlier turn.
type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) AppendTurn(ctx context.Context, chatID, role, content string, code *string) (*models.Turn, error) {
	id, err := uuid.Parse(chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	var (
		turnID uuid.UUID
		t      = &models.Turn{ChatID: id.String(), Role: role, Content: content, Code: code}
	)
	query := `INSERT INTO messages (chat_id, role, content, code) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err = r.pool.QueryRow(ctx, query, id, role, content, code).Scan(&turnID, &t.CreatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
		}
		return nil, fmt.Errorf("insert %s turn: %w", role, err)
	}
	t.ID = turnID.String()
	return t, nil
}

// FetchRecentTurns returns at most limit of the newest turns, oldest first.
func (r *MessageRepo) FetchRecentTurns(ctx context.Context, chatID string, limit int) ([]models.Turn, error) {
	id, err := uuid.Parse(chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	query := `SELECT id, chat_id, role, content, code, created_at FROM messages
		WHERE chat_id = $1 ORDER BY seq DESC LIMIT $2`
	turns, err := r.query(ctx, query, id, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(turns)
	return turns, nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Turn, error) {
	query := `SELECT id, chat_id, role, content, code, created_at FROM messages
		WHERE chat_id = $1 ORDER BY seq ASC`
	return r.query(ctx, query, chatID)
}

func (r *MessageRepo) query(ctx context.Context, query string, args ...any) ([]models.Turn, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			t          models.Turn
			id, chatID uuid.UUID
		)
		if err := rows.Scan(&id, &chatID, &t.Role, &t.Content, &t.Code, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ID = id.String()
		t.ChatID = chatID.String()
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
