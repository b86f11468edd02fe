package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agrichat/internal/models"
)

// SQLiteChatRepo is the single-file store for deployments without Postgres.
type SQLiteChatRepo struct {
	db *sql.DB
}

func NewSQLiteChatRepo(db *sql.DB) *SQLiteChatRepo {
	return &SQLiteChatRepo{db: db}
}

func (r *SQLiteChatRepo) CreateSession(ctx context.Context, s *models.ChatSession) error {
	s.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, title, language, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Title, s.Language, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (r *SQLiteChatRepo) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, language, created_at FROM chat_sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.Title, &s.Language, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return s, nil
}

func (r *SQLiteChatRepo) AppendMessages(ctx context.Context, msgs ...*models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, m := range msgs {
		m.CreatedAt = now
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, role, content, language, created_at) VALUES (?, ?, ?, ?, ?)`,
			m.SessionID, m.Role, m.Content, m.Language, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read chat message id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat messages: %w", err)
	}
	return nil
}

func (r *SQLiteChatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, language, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY id ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query = `SELECT id, session_id, role, content, language, created_at FROM (
			SELECT id, session_id, role, content, language, created_at
			FROM chat_messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *SQLiteChatRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteChatRepo) Driver() string { return "sqlite" }
