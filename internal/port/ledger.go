package port

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// StockLedger is the narrow facade the order serializer mutates. The
// serializer is the sole caller of CommitDecrement; no other code path may
// decrement stock directly.
type StockLedger interface {
	// Find returns the product regardless of its active flag, so the
	// serializer can distinguish a missing product from a deactivated one.
	// Returns domain.ErrNotFound when no document matches.
	Find(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)

	// CommitDecrement atomically subtracts quantity from stock, guarded by
	// stock >= quantity at the store level, and returns the updated
	// product. Called at most once per admitted request.
	CommitDecrement(ctx context.Context, id primitive.ObjectID, quantity int) (*domain.Product, error)

	// ListActive returns the current active-product snapshot, newest first.
	ListActive(ctx context.Context) ([]domain.Product, error)
}
