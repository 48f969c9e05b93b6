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

const cartTTL = 7 * 24 * time.Hour

type cartRepository struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewCartRepository(rdb *redis.Client, log logger.ILogger) contract.ICartRepository {
	return &cartRepository{rdb: rdb, log: log}
}

func cartKey(deviceId string) string {
	return "cart:" + deviceId
}

func (r *cartRepository) Get(ctx context.Context, deviceId string) ([]entity.CartItem, error) {
	raw, err := r.rdb.Get(ctx, cartKey(deviceId)).Result()
	if err == redis.Nil {
		return []entity.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := decodeCartItems(raw)
	if err != nil {
		// Same policy as the stored chat blob: malformed state resets to empty.
		r.log.Warn("CartRepo", "Discarding malformed stored cart", map[string]interface{}{
			"device_id": deviceId,
			"error":     err.Error(),
		})
		_ = r.rdb.Del(ctx, cartKey(deviceId)).Err()
		return []entity.CartItem{}, nil
	}
	return items, nil
}

func decodeCartItems(raw string) ([]entity.CartItem, error) {
	var items []entity.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) Save(ctx context.Context, deviceId string, items []entity.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, cartKey(deviceId), raw, cartTTL).Err()
}

func (r *cartRepository) Clear(ctx context.Context, deviceId string) error {
	return r.rdb.Del(ctx, cartKey(deviceId)).Err()
}
