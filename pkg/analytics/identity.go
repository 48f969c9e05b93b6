package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the device/session pair attached to every tracked event.
// It is constructed once at app start and passed down explicitly; nothing
// in this package holds module-level identity state.
type Identity struct {
	DeviceId  string
	SessionId int64
}

func NewIdentity() Identity {
	return Identity{
		DeviceId:  uuid.NewString(),
		SessionId: time.Now().UnixMilli(),
	}
}
