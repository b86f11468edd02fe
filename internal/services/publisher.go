package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"agrichat/internal/models"
)

// UpdatePublisher fans session events out to live subscribers.
type UpdatePublisher interface {
	Publish(ctx context.Context, sessionID string, msg models.WSMessage) error
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

// SessionChannel is the pub/sub channel carrying updates for one chat session.
func SessionChannel(sessionID string) string {
	return "chat_updates:" + sessionID
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, SessionChannel(sessionID), string(data)).Err()
}
