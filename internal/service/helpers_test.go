package service

import (
	"context"
	"net/http/httptest"
	"sync"

	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/repository/contract"
	"ai-filesearch-be/pkg/gemini"
)

// nopLogger satisfies logger.ILogger without touching the filesystem.
type nopLogger = logger.NopLogger

// fakeTracker records tracked events for assertions.
type fakeTracker struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeTracker) Track(event string, properties map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeTracker) tracked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func newTestGeminiClient(server *httptest.Server) *gemini.Client {
	return gemini.NewClient("test-key", nopLogger{},
		gemini.WithBaseURL(server.URL),
		gemini.WithUploadBaseURL(server.URL),
		gemini.WithModel("test-model"),
	)
}

// memoryCartRepository is an in-memory ICartRepository.
type memoryCartRepository struct {
	mu    sync.Mutex
	carts map[string][]entity.CartItem
}

func newMemoryCartRepository() contract.ICartRepository {
	return &memoryCartRepository{carts: make(map[string][]entity.CartItem)}
}

func (r *memoryCartRepository) Get(ctx context.Context, deviceId string) ([]entity.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.CartItem(nil), r.carts[deviceId]...), nil
}

func (r *memoryCartRepository) Save(ctx context.Context, deviceId string, items []entity.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[deviceId] = append([]entity.CartItem(nil), items...)
	return nil
}

func (r *memoryCartRepository) Clear(ctx context.Context, deviceId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, deviceId)
	return nil
}

// memoryHistoryRepository is an in-memory IChatHistoryRepository.
type memoryHistoryRepository struct {
	mu    sync.Mutex
	turns map[string][]entity.ChatTurn
}

func newMemoryHistoryRepository() contract.IChatHistoryRepository {
	return &memoryHistoryRepository{turns: make(map[string][]entity.ChatTurn)}
}

func (r *memoryHistoryRepository) Get(ctx context.Context, sessionId string) ([]entity.ChatTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.ChatTurn(nil), r.turns[sessionId]...), nil
}

func (r *memoryHistoryRepository) Append(ctx context.Context, sessionId string, turns ...entity.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[sessionId] = append(r.turns[sessionId], turns...)
	return nil
}

func (r *memoryHistoryRepository) Clear(ctx context.Context, sessionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, sessionId)
	return nil
}
