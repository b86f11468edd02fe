package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is a server-issued conversation context scoped to one language and title.
type ChatSession struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	ID        int64     `json:"-"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

type StartChatRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
}

type StartChatResponse struct {
	SessionID string `json:"session_id"`
}

type AskRequest struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	Question  string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type HistoryResponse struct {
	Messages []*ChatMessage `json:"messages"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}
