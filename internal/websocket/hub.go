package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const progressChannel = "filesearch:progress"

// Hub fans upload-progress updates out to connected browsers. Progress for
// an operation started on another instance arrives through the redis
// channel, so a client can watch any operation regardless of which replica
// accepted the upload.
type Hub struct {
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.Id]; ok {
				delete(h.clients, client.Id)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Hub stopped", nil)
			return
		}
	}
}

// Teardown stops Run, disconnects every client and closes the redis
// subscription. Safe to call more than once.
func (h *Hub) Teardown() {
	h.stopOnce.Do(func() { close(h.done) })
}

// BroadcastProgress pushes one operation state to every local client and
// mirrors it to redis for the other instances.
func (h *Hub) BroadcastProgress(progress dto.OperationStatusResponse) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "operation_progress",
		"data": progress,
	})
	if err != nil {
		return
	}

	h.broadcastLocal(data)

	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), progressChannel, data).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop it rather than block the broadcast.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis() {
	pubsub := h.rdb.Subscribe(context.Background(), progressChannel)
	// Closing the subscription ends the Channel range below.
	go func() {
		<-h.done
		pubsub.Close()
	}()

	for msg := range pubsub.Channel() {
		h.broadcastLocal([]byte(msg.Payload))
	}
}
