package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// Publisher implements port.Broadcaster over a Redis pub/sub channel.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, kind domain.EventKind, payload any) error {
	data, err := json.Marshal(Envelope{Event: kind, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", kind, err)
	}
	return nil
}

// Relay subscribes to the event channel and forwards every envelope to the
// hub, so WebSocket observers see the same stream as any out-of-process
// subscriber.
type Relay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Relay {
	return &Relay{client: client, channel: channel, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	r.logger.Info("event relay subscribed", zap.String("channel", r.channel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Send([]byte(msg.Payload))
		}
	}
}
