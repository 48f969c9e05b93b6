package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NopLogger{})
	go hub.Run()
	t.Cleanup(hub.Teardown)
	return hub
}

func registerClient(t *testing.T, hub *Hub, buffer int) *Client {
	t.Helper()
	client := &Client{Hub: hub, Id: uuid.New(), Send: make(chan []byte, buffer)}
	select {
	case hub.register <- client:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not accept registration")
	}
	return client
}

func TestBroadcastProgressReachesClients(t *testing.T) {
	hub := newTestHub(t)
	client := registerClient(t, hub, 4)

	hub.BroadcastProgress(dto.OperationStatusResponse{
		Name:            "fileSearchStores/a/upload/operations/op1",
		FileDisplayName: "doc.txt",
		Done:            true,
	})

	select {
	case raw := <-client.Send:
		var envelope struct {
			Type string                      `json:"type"`
			Data dto.OperationStatusResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "operation_progress", envelope.Type)
		assert.Equal(t, "fileSearchStores/a/upload/operations/op1", envelope.Data.Name)
		assert.True(t, envelope.Data.Done)
	case <-time.After(2 * time.Second):
		t.Fatal("client received no broadcast")
	}
}

func TestTeardownDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, logger.NopLogger{})
	go hub.Run()

	client := registerClient(t, hub, 1)

	hub.Teardown()
	// Repeat calls must not panic.
	hub.Teardown()

	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed on teardown")
	}

	// After teardown the client map is empty, broadcasts become no-ops.
	hub.BroadcastProgress(dto.OperationStatusResponse{Name: "operations/late"})
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.clients)
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := newTestHub(t)
	client := registerClient(t, hub, 1)

	// First broadcast fills the buffer, the second finds it full and evicts
	// the client.
	hub.BroadcastProgress(dto.OperationStatusResponse{Name: "operations/one"})
	hub.BroadcastProgress(dto.OperationStatusResponse{Name: "operations/two"})

	deadline := time.After(2 * time.Second)
	for {
		hub.mu.RLock()
		_, present := hub.clients[client.Id]
		hub.mu.RUnlock()
		if !present {
			return
		}
		select {
		case <-deadline:
			t.Fatal("slow client was not evicted")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
