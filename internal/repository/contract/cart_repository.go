package contract

import (
	"context"

	"ai-filesearch-be/internal/entity"
)

type ICartRepository interface {
	Get(ctx context.Context, deviceId string) ([]entity.CartItem, error)
	Save(ctx context.Context, deviceId string, items []entity.CartItem) error
	Clear(ctx context.Context, deviceId string) error
}
