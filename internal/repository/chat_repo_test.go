package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"agrichat/internal/database"
	"agrichat/internal/models"
)

type chatStore interface {
	CreateSession(ctx context.Context, s *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	AppendMessages(ctx context.Context, msgs ...*models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error)
}

func TestMemoryChatRepo(t *testing.T) {
	runChatStoreTests(t, NewMemoryChatRepo())
}

func TestSQLiteChatRepo(t *testing.T) {
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	runChatStoreTests(t, NewSQLiteChatRepo(db))
}

func TestPostgresChatRepo(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := database.NewPostgresPool(url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()
	if err := database.RunMigrations(pool, filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	runChatStoreTests(t, NewChatRepo(pool))
}

func runChatStoreTests(t *testing.T, store chatStore) {
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		_, err := store.GetSession(ctx, uuid.NewString())
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	session := &models.ChatSession{ID: uuid.NewString(), Title: "My Farm Chat", Language: "hi"}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	t.Run("get session", func(t *testing.T) {
		got, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Title != "My Farm Chat" || got.Language != "hi" {
			t.Fatalf("unexpected session: %+v", got)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		msgs, err := store.ListMessages(ctx, session.ID, 0)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if msgs == nil || len(msgs) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", msgs)
		}
	})

	contents := []string{"q1", "a1", "q2", "a2", "q3", "a3"}
	for i := 0; i < len(contents); i += 2 {
		err := store.AppendMessages(ctx,
			&models.ChatMessage{SessionID: session.ID, Role: models.RoleUser, Content: contents[i], Language: "hi"},
			&models.ChatMessage{SessionID: session.ID, Role: models.RoleAssistant, Content: contents[i+1], Language: "hi"},
		)
		if err != nil {
			t.Fatalf("AppendMessages failed: %v", err)
		}
	}

	t.Run("history is oldest first", func(t *testing.T) {
		msgs, err := store.ListMessages(ctx, session.ID, 0)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(msgs) != len(contents) {
			t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
		}
		for i, m := range msgs {
			if m.Content != contents[i] {
				t.Fatalf("message %d: expected %q, got %q", i, contents[i], m.Content)
			}
		}
		if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
			t.Fatalf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
		}
	})

	t.Run("limit keeps most recent", func(t *testing.T) {
		msgs, err := store.ListMessages(ctx, session.ID, 2)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(msgs) != 2 || msgs[0].Content != "q3" || msgs[1].Content != "a3" {
			t.Fatalf("unexpected window: %+v", msgs)
		}
	})
}
