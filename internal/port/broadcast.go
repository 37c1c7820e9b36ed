package port

import (
	"context"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// Broadcaster pushes events to all connected observers. Publishing is
// fire-and-forget from the caller's perspective: a failed publish never
// fails the operation that triggered it.
type Broadcaster interface {
	Publish(ctx context.Context, kind domain.EventKind, payload any) error
}
