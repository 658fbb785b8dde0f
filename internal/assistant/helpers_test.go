package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chatbot-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func trim(s string) string { return strings.TrimSpace(s) }

// ── Backend stubs ──

type stubBackend struct {
	family  Family
	chunks  []string
	failAt  int // index of the Recv call that fails; -1 never
	err     error
	openErr error

	mu       sync.Mutex
	opened   int
	closed   int
	lastReq  Request
	lastName string
}

func newStubBackend(family Family, chunks ...string) *stubBackend {
	return &stubBackend{family: family, chunks: chunks, failAt: -1}
}

func (b *stubBackend) Family() Family { return b.family }

func (b *stubBackend) Stream(ctx context.Context, model string, req Request) (ChunkStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened++
	b.lastReq = req
	b.lastName = model
	if b.openErr != nil {
		return nil, b.openErr
	}
	return &stubStream{ctx: ctx, backend: b}, nil
}

func (b *stubBackend) Close() error { return nil }

func (b *stubBackend) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

type stubStream struct {
	ctx     context.Context
	backend *stubBackend
	pos     int
}

func (s *stubStream) Recv() (Chunk, error) {
	if err := s.ctx.Err(); err != nil {
		return Chunk{}, err
	}
	b := s.backend
	if b.failAt >= 0 && s.pos == b.failAt {
		return Chunk{}, b.err
	}
	if s.pos >= len(b.chunks) {
		return Chunk{}, io.EOF
	}
	text := b.chunks[s.pos]
	s.pos++
	return Chunk{Text: text, Final: s.pos == len(b.chunks)}, nil
}

func (s *stubStream) Close() error {
	s.backend.mu.Lock()
	s.backend.closed++
	s.backend.mu.Unlock()
	return nil
}

// ── Store stub ──

type memoryStore struct {
	mu         sync.Mutex
	turns      []models.Turn
	appendErr  map[string]error // role -> error
	fetchErr   error
	fetchLimit int
}

func newMemoryStore(seed ...models.Turn) *memoryStore {
	return &memoryStore{turns: seed, appendErr: map[string]error{}}
}

func (m *memoryStore) AppendTurn(ctx context.Context, chatID, role, content string, code *string) (*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.appendErr[role]; err != nil {
		return nil, err
	}
	t := models.Turn{
		ID:      fmt.Sprintf("t%d", len(m.turns)+1),
		ChatID:  chatID,
		Role:    role,
		Content: content,
		Code:    code,
	}
	m.turns = append(m.turns, t)
	return &t, nil
}

func (m *memoryStore) FetchRecentTurns(ctx context.Context, chatID string, limit int) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchLimit = limit
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
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

func (m *memoryStore) byRole(role string) []models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Turn
	for _, t := range m.turns {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// ── Sink stub ──

type recordingSink struct {
	events []Event
	failAt int // index of the Send call that fails; -1 never
	onSend func(Event)
}

func newRecordingSink() *recordingSink { return &recordingSink{failAt: -1} }

var errClientGone = errors.New("write: broken pipe")

func (s *recordingSink) Send(e Event) error {
	if s.failAt >= 0 && len(s.events) == s.failAt {
		return errClientGone
	}
	s.events = append(s.events, e)
	if s.onSend != nil {
		s.onSend(e)
	}
	return nil
}

// ── Notifier stub ──

type recordingNotifier struct {
	mu    sync.Mutex
	calls []models.Turn
	users []uuid.UUID
}

func (n *recordingNotifier) TurnCreated(ctx context.Context, userID uuid.UUID, turn *models.Turn, hasCode bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, *turn)
	n.users = append(n.users, userID)
}
