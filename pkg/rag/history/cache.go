package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ai-discovery-be/pkg/llm"

	"github.com/google/uuid"
)

// Cache is a read-through redis cache for per-session conversation history.
// The database stays the source of truth; entries are invalidated whenever a
// turn is persisted.
type Cache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewCache(client *redisv9.Client, historyTTL time.Duration) *Cache {
	if historyTTL <= 0 {
		historyTTL = 10 * time.Minute
	}
	return &Cache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *Cache) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, c.historyKey(sessionId)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []llm.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

func (c *Cache) SetHistory(ctx context.Context, sessionId uuid.UUID, messages []llm.Message) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(sessionId), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *Cache) DeleteHistory(ctx context.Context, sessionId uuid.UUID) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, c.historyKey(sessionId)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *Cache) historyKey(sessionId uuid.UUID) string {
	return fmt.Sprintf("chat:history:%s", sessionId)
}
