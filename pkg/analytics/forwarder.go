package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"ai-filesearch-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IForwarder interface {
	Consume(ctx context.Context) error
}

// Forwarder drains the event bus and ships events to the analytics
// collector over HTTP. Delivery is fire and forget: every message is acked
// whatever the collector says, failures are logged at warn and dropped.
type Forwarder struct {
	pubSub     *gochannel.GoChannel
	endpoint   string
	apiKey     string
	httpClient *http.Client
	log        logger.ILogger
}

func NewForwarder(pubSub *gochannel.GoChannel, endpoint, apiKey string, log logger.ILogger) *Forwarder {
	return &Forwarder{
		pubSub:     pubSub,
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		log:        log,
	}
}

func (f *Forwarder) Consume(ctx context.Context) error {
	messages, err := f.pubSub.Subscribe(ctx, EventsTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			f.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (f *Forwarder) processMessage(ctx context.Context, msg *message.Message) {
	// Ack unconditionally: analytics must never wedge the bus.
	defer msg.Ack()

	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		f.log.Warn("Analytics", "Dropping undecodable event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if f.apiKey == "" {
		// No collector credential; events still flow for local consumers
		// (websocket liveness), they just are not exported.
		return
	}

	if err := f.ship(ctx, event); err != nil {
		f.log.Warn("Analytics", "Failed to forward event", map[string]interface{}{
			"event": event.Name,
			"error": err.Error(),
		})
	}
}

type collectorPayload struct {
	ApiKey string           `json:"api_key"`
	Events []collectorEvent `json:"events"`
}

type collectorEvent struct {
	EventType       string                 `json:"event_type"`
	DeviceId        string                 `json:"device_id"`
	SessionId       int64                  `json:"session_id"`
	Time            int64                  `json:"time"`
	InsertId        string                 `json:"insert_id"`
	EventProperties map[string]interface{} `json:"event_properties,omitempty"`
}

func (f *Forwarder) ship(ctx context.Context, event Event) error {
	payload, err := json.Marshal(collectorPayload{
		ApiKey: f.apiKey,
		Events: []collectorEvent{{
			EventType:       event.Name,
			DeviceId:        event.DeviceId,
			SessionId:       event.SessionId,
			Time:            event.Time.UnixMilli(),
			InsertId:        event.Id,
			EventProperties: event.Properties,
		}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return nil
}
