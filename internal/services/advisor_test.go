package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"agrichat/internal/models"
)

func TestLoadPromptSpec_Default(t *testing.T) {
	spec, err := LoadPromptSpec("")
	if err != nil {
		t.Fatalf("LoadPromptSpec failed: %v", err)
	}
	if spec.LanguageName("ta") != "Tamil" {
		t.Fatalf("expected Tamil, got %q", spec.LanguageName("ta"))
	}
	if spec.LanguageName("xx") != "xx" {
		t.Fatalf("expected code fallback, got %q", spec.LanguageName("xx"))
	}
	if !strings.Contains(spec.SystemPrompt("hi"), "Always answer in Hindi") {
		t.Fatalf("system prompt missing language instruction:\n%s", spec.SystemPrompt("hi"))
	}
}

func TestLoadPromptSpec_FileAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	os.WriteFile(path, []byte("system: Be brief.\n"), 0o644)

	spec, err := LoadPromptSpec(path)
	if err != nil {
		t.Fatalf("LoadPromptSpec failed: %v", err)
	}
	if spec.Style.Temperature != 0.3 || spec.Style.MaxTokens != 800 {
		t.Fatalf("expected style defaults, got %+v", spec.Style)
	}
	if spec.SystemPrompt("en") != "Be brief." {
		t.Fatalf("unexpected prompt %q", spec.SystemPrompt("en"))
	}
}

func TestLoadPromptSpec_RejectsEmptySystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	os.WriteFile(path, []byte("style:\n  temperature: 0.5\n"), 0o644)

	if _, err := LoadPromptSpec(path); err == nil {
		t.Fatalf("expected error for prompt without system text")
	}
}

func TestToOpenAIMessages(t *testing.T) {
	req := AnswerRequest{
		SystemPrompt: "sys",
		History: []*models.ChatMessage{
			{Role: models.RoleUser, Content: "q1"},
			{Role: models.RoleAssistant, Content: "a1"},
		},
		Question: "q2",
	}

	msgs := toOpenAIMessages(req)
	wantRoles := []string{openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Fatalf("message %d: expected role %s, got %s", i, role, msgs[i].Role)
		}
	}
	if msgs[3].Content != "q2" {
		t.Fatalf("expected question last, got %q", msgs[3].Content)
	}
}

func TestToGeminiHistory(t *testing.T) {
	history := toGeminiHistory(AnswerRequest{History: []*models.ChatMessage{
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1"},
	}})
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "model" {
		t.Fatalf("unexpected gemini history: %+v", history)
	}
}

func TestAnswerCacheKey_NormalizesQuestion(t *testing.T) {
	a := answerCacheKey("hi", "  Kya  Khaad  daalein? ")
	b := answerCacheKey("hi", "kya khaad daalein?")
	if a != b {
		t.Fatalf("expected equal keys, got %s vs %s", a, b)
	}
	if a == answerCacheKey("en", "kya khaad daalein?") {
		t.Fatalf("expected language to be part of the key")
	}
	if !strings.HasPrefix(a, "answer:hi:") {
		t.Fatalf("unexpected key %s", a)
	}
}

func TestTokenBucket_TimesOut(t *testing.T) {
	b := newTokenBucket(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := b.acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	err := b.acquire(ctx)
	var busy *RateLimitError
	if !errors.As(err, &busy) {
		t.Fatalf("expected RateLimitError while bucket is empty, got %v", err)
	}
	b.release()
	if err := b.acquire(ctx); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestTokenBucket_HonoursContext(t *testing.T) {
	b := newTokenBucket(1, time.Minute)
	b.acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.acquire(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
