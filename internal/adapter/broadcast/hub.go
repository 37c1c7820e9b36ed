package broadcast

import (
	"context"

	"go.uber.org/zap"
)

// Hub fans frames out to every connected WebSocket client. Clients that
// cannot keep up are dropped rather than allowed to stall the stream.
type Hub struct {
	logger     *zap.Logger
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	frames     chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		frames:     make(chan []byte, 256),
	}
}

// Run owns the client set; all membership changes go through its channels.
// It blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return nil
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info("observer connected", zap.Int("observers", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("observer disconnected", zap.Int("observers", len(h.clients)))
			}
		case frame := <-h.frames:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropped slow observer")
				}
			}
		}
	}
}

// Send queues a frame for fan-out without blocking the caller; if the hub
// is saturated the frame is dropped.
func (h *Hub) Send(frame []byte) {
	select {
	case h.frames <- frame:
	default:
		h.logger.Warn("broadcast buffer full, frame dropped")
	}
}
