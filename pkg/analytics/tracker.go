package analytics

import (
	"encoding/json"
	"time"

	"ai-filesearch-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const EventsTopic = "ANALYTICS_EVENTS"

// Event is one tracked analytics event on the in-process bus.
type Event struct {
	Id         string                 `json:"id"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	DeviceId   string                 `json:"device_id"`
	SessionId  int64                  `json:"session_id"`
	Time       time.Time              `json:"time"`
}

type ITracker interface {
	Track(event string, properties map[string]interface{})
}

// Tracker publishes events onto the bus and returns immediately. Tracking
// is best effort: a failed publish is logged and swallowed, callers never
// block on or observe analytics failures.
type Tracker struct {
	pubSub   *gochannel.GoChannel
	identity Identity
	log      logger.ILogger
}

func NewTracker(pubSub *gochannel.GoChannel, identity Identity, log logger.ILogger) *Tracker {
	return &Tracker{
		pubSub:   pubSub,
		identity: identity,
		log:      log,
	}
}

func (t *Tracker) Track(event string, properties map[string]interface{}) {
	payload, err := json.Marshal(Event{
		Id:         uuid.NewString(),
		Name:       event,
		Properties: properties,
		DeviceId:   t.identity.DeviceId,
		SessionId:  t.identity.SessionId,
		Time:       time.Now(),
	})
	if err != nil {
		t.log.Warn("Analytics", "Failed to encode event", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := t.pubSub.Publish(EventsTopic, msg); err != nil {
		t.log.Warn("Analytics", "Failed to publish event", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
	}
}
