package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnswerCache remembers answers to context-free questions.
type AnswerCache interface {
	Get(ctx context.Context, language, question string) (string, bool, error)
	Set(ctx context.Context, language, question, answer string) error
}

type RedisAnswerCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisAnswerCache(client *redis.Client, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{redis: client, ttl: ttl}
}

func (c *RedisAnswerCache) Get(ctx context.Context, language, question string) (string, bool, error) {
	answer, err := c.redis.Get(ctx, answerCacheKey(language, question)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

func (c *RedisAnswerCache) Set(ctx context.Context, language, question, answer string) error {
	return c.redis.Set(ctx, answerCacheKey(language, question), answer, c.ttl).Err()
}

// answerCacheKey hashes the normalized question so case and spacing differences share an entry.
func answerCacheKey(language, question string) string {
	h := sha256.Sum256([]byte(normalizeQuestion(question)))
	return "answer:" + language + ":" + hex.EncodeToString(h[:])
}

func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
