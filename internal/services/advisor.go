package services

import (
	"context"
	"time"

	"agrichat/internal/models"
)

// AnswerRequest is everything an advisor needs to answer one question.
type AnswerRequest struct {
	SystemPrompt string
	History      []*models.ChatMessage
	Question     string
}

// Advisor produces an answer from a language model.
type Advisor interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
	Name() string
}

// tokenBucket caps concurrent model calls.
type tokenBucket struct {
	slots chan struct{}
	wait  time.Duration
}

func newTokenBucket(size int, wait time.Duration) *tokenBucket {
	if size <= 0 {
		size = 1
	}
	slots := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		slots <- struct{}{}
	}
	return &tokenBucket{slots: slots, wait: wait}
}

// acquire blocks until a slot is available. Waiting longer than b.wait is
// reported as a RateLimitError so callers can ask the user to retry.
func (b *tokenBucket) acquire(ctx context.Context) error {
	select {
	case <-b.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.wait):
		return &RateLimitError{Message: "AI service is busy, please try again shortly"}
	}
}

func (b *tokenBucket) release() {
	b.slots <- struct{}{}
}
