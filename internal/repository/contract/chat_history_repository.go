package contract

import (
	"context"

	"ai-filesearch-be/internal/entity"
)

type IChatHistoryRepository interface {
	Get(ctx context.Context, sessionId string) ([]entity.ChatTurn, error)
	Append(ctx context.Context, sessionId string, turns ...entity.ChatTurn) error
	Clear(ctx context.Context, sessionId string) error
}
