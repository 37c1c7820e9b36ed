// Package broadcast pushes inventory events to connected observers: a Redis
// pub/sub channel carries the stream, and a WebSocket hub relays it to
// admin consoles.
package broadcast

import (
	"time"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// Envelope is the wire format for every broadcast event.
type Envelope struct {
	Event   domain.EventKind `json:"event"`
	Payload any              `json:"payload"`
	At      time.Time        `json:"at"`
}
