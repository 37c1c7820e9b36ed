package port

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// ProductRepository persists products in the document store. Lookups return
// domain.ErrNotFound when no document matches; writes that violate a unique
// index return *domain.DuplicateKeyError.
type ProductRepository interface {
	StockLedger

	Insert(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	ListAll(ctx context.Context) ([]domain.Product, error)
	ByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
