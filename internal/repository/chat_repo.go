package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agrichat/internal/models"
)

var ErrSessionNotFound = errors.New("chat session not found")

// ChatRepo stores sessions and messages in Postgres.
type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) CreateSession(ctx context.Context, s *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, title, language)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, s.ID, s.Title, s.Language).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, language, created_at
		FROM chat_sessions
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Title, &s.Language, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return s, nil
}

// AppendMessages inserts all messages in one transaction, in order.
func (r *ChatRepo) AppendMessages(ctx context.Context, msgs ...*models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range msgs {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat_messages (session_id, role, content, language)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, m.SessionID, m.Role, m.Content, m.Language).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chat messages: %w", err)
	}
	return nil
}

// ListMessages returns the session's messages oldest first. A positive limit keeps
// only the most recent limit messages.
func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, language, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id ASC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query = `
			SELECT id, session_id, role, content, language, created_at FROM (
				SELECT id, session_id, role, content, language, created_at
				FROM chat_messages
				WHERE session_id = $1
				ORDER BY id DESC
				LIMIT $2
			) recent
			ORDER BY id ASC
		`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		m := &models.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Language, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *ChatRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *ChatRepo) Driver() string { return "postgres" }
