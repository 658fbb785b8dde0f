package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chatbot-backend/internal/assistant"
	"chatbot-backend/internal/middleware"
	"chatbot-backend/internal/models"
	"chatbot-backend/internal/repository"
)

func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// ── Backend stub ──

type stubBackend struct {
	family assistant.Family
	chunks []string
	err    error
}

func (b *stubBackend) Family() assistant.Family { return b.family }

func (b *stubBackend) Stream(ctx context.Context, model string, req assistant.Request) (assistant.ChunkStream, error) {
	return &stubStream{ctx: ctx, chunks: b.chunks, err: b.err}, nil
}

func (b *stubBackend) Close() error { return nil }

type stubStream struct {
	ctx    context.Context
	chunks []string
	err    error
	pos    int
}

func (s *stubStream) Recv() (assistant.Chunk, error) {
	if err := s.ctx.Err(); err != nil {
		return assistant.Chunk{}, err
	}
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return assistant.Chunk{}, s.err
		}
		return assistant.Chunk{}, io.EOF
	}
	text := s.chunks[s.pos]
	s.pos++
	return assistant.Chunk{Text: text, Final: s.pos == len(s.chunks)}, nil
}

func (s *stubStream) Close() error { return nil }

// ── Stores ──

type memoryTurns struct {
	mu    sync.Mutex
	turns []models.Turn
}

func (m *memoryTurns) AppendTurn(ctx context.Context, chatID, role, content string, code *string) (*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := models.Turn{
		ID:        fmt.Sprintf("t%d", len(m.turns)+1),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Code:      code,
		CreatedAt: time.Now(),
	}
	m.turns = append(m.turns, t)
	return &t, nil
}

func (m *memoryTurns) FetchRecentTurns(ctx context.Context, chatID string, limit int) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Turn
	for _, t := range m.turns {
		if t.ChatID == chatID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memoryTurns) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Turn, error) {
	return m.FetchRecentTurns(ctx, chatID.String(), 1<<20)
}

func (m *memoryTurns) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

type stubChats struct {
	chats      map[uuid.UUID]*models.Chat
	lastFilter models.ChatListFilter
	lastQuery  string
}

func newStubChats(chats ...*models.Chat) *stubChats {
	s := &stubChats{chats: map[uuid.UUID]*models.Chat{}}
	for _, c := range chats {
		s.chats[c.ID] = c
	}
	return s
}

func (s *stubChats) Create(ctx context.Context, c *models.Chat) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.chats[c.ID] = c
	return nil
}

func (s *stubChats) GetForUser(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	c, ok := s.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, repository.ErrChatNotFound
	}
	return c, nil
}

func (s *stubChats) ListByUser(ctx context.Context, userID uuid.UUID, f models.ChatListFilter) ([]models.Chat, error) {
	s.lastFilter = f
	var out []models.Chat
	for _, c := range s.chats {
		if c.UserID == userID && strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Query)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubChats) Search(ctx context.Context, userID uuid.UUID, q string) ([]models.Chat, error) {
	s.lastQuery = q
	return nil, nil
}

func (s *stubChats) UpdateTitle(ctx context.Context, chatID, userID uuid.UUID, title string) (*models.Chat, error) {
	c, err := s.GetForUser(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	c.Title = title
	return c, nil
}

func (s *stubChats) Delete(ctx context.Context, chatID, userID uuid.UUID) error {
	if _, err := s.GetForUser(ctx, chatID, userID); err != nil {
		return err
	}
	delete(s.chats, chatID)
	return nil
}
