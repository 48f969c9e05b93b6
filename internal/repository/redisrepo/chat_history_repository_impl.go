package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const chatHistoryTTL = 24 * time.Hour

// chatHistoryRepository keeps conversation turns as one JSON blob per
// session. There is no schema versioning; a blob that no longer parses is
// discarded and the session falls back to an empty history.
type chatHistoryRepository struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewChatHistoryRepository(rdb *redis.Client, log logger.ILogger) contract.IChatHistoryRepository {
	return &chatHistoryRepository{rdb: rdb, log: log}
}

func chatHistoryKey(sessionId string) string {
	return "chat:history:" + sessionId
}

func (r *chatHistoryRepository) Get(ctx context.Context, sessionId string) ([]entity.ChatTurn, error) {
	raw, err := r.rdb.Get(ctx, chatHistoryKey(sessionId)).Result()
	if err == redis.Nil {
		return []entity.ChatTurn{}, nil
	}
	if err != nil {
		return nil, err
	}

	turns, err := decodeTurns(raw)
	if err != nil {
		r.log.Warn("ChatHistoryRepo", "Discarding malformed stored history", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		_ = r.rdb.Del(ctx, chatHistoryKey(sessionId)).Err()
		return []entity.ChatTurn{}, nil
	}
	return turns, nil
}

// decodeTurns parses a stored history blob. A blob that no longer parses is
// reported so the caller can discard it and fall back to an empty history.
func decodeTurns(raw string) ([]entity.ChatTurn, error) {
	var turns []entity.ChatTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *chatHistoryRepository) Append(ctx context.Context, sessionId string, turns ...entity.ChatTurn) error {
	existing, err := r.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	existing = append(existing, turns...)

	raw, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, chatHistoryKey(sessionId), raw, chatHistoryTTL).Err()
}

func (r *chatHistoryRepository) Clear(ctx context.Context, sessionId string) error {
	return r.rdb.Del(ctx, chatHistoryKey(sessionId)).Err()
}
