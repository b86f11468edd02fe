package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agrichat/internal/models"
)

// MemoryChatRepo keeps everything in process memory. Used when no database is
// configured and in tests; contents vanish on restart.
type MemoryChatRepo struct {
	mu       sync.RWMutex
	sessions map[string]models.ChatSession
	messages map[string][]models.ChatMessage
	nextID   int64
}

func NewMemoryChatRepo() *MemoryChatRepo {
	return &MemoryChatRepo{
		sessions: make(map[string]models.ChatSession),
		messages: make(map[string][]models.ChatMessage),
	}
}

func (m *MemoryChatRepo) CreateSession(ctx context.Context, s *models.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("failed to create chat session: duplicate id %s", s.ID)
	}
	s.CreatedAt = time.Now().UTC()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryChatRepo) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryChatRepo) AppendMessages(ctx context.Context, msgs ...*models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		if _, ok := m.sessions[msg.SessionID]; !ok {
			return ErrSessionNotFound
		}
	}
	now := time.Now().UTC()
	for _, msg := range msgs {
		m.nextID++
		msg.ID = m.nextID
		msg.CreatedAt = now
		m.messages[msg.SessionID] = append(m.messages[msg.SessionID], *msg)
	}
	return nil
}

func (m *MemoryChatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*models.ChatMessage, 0, len(msgs))
	for i := range msgs {
		c := msgs[i]
		out = append(out, &c)
	}
	return out, nil
}

func (m *MemoryChatRepo) Ping(ctx context.Context) error { return nil }

func (m *MemoryChatRepo) Driver() string { return "memory" }
