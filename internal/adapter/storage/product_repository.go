package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// ProductRepository stores products in the `products` collection and doubles
// as the serializer's stock ledger.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

// EnsureIndexes creates the unique name index and the unique sparse sku
// index the domain relies on.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return mapDuplicateKey(err, "name", "sku")
	}
	return nil
}

func (r *ProductRepository) Find(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var p domain.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return mapDuplicateKey(err, "name", "sku")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, bson.M{"isActive": true})
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, bson.M{})
}

func (r *ProductRepository) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return r.list(ctx, bson.M{"category": category, "isActive": true})
}

// Search matches name, description, category, or sku case-insensitively
// among active products.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	pattern := primitive.Regex{Pattern: regexQuoteMeta(query), Options: "i"}
	filter := bson.M{
		"isActive": true,
		"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"category": pattern},
			bson.M{"sku": pattern},
		},
	}
	return r.list(ctx, filter)
}

func (r *ProductRepository) list(ctx context.Context, filter bson.M) ([]domain.Product, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// CommitDecrement performs the guarded decrement in one conditional update:
// the filter requires the product to be active with enough stock, so the
// store itself can never be driven negative.
func (r *ProductRepository) CommitDecrement(ctx context.Context, id primitive.ObjectID, quantity int) (*domain.Product, error) {
	filter := bson.M{
		"_id":      id,
		"isActive": true,
		"stock":    bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Product
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Lost a race with an admin mutation between the serializer's read
		// and this commit. Re-read to report the precise reason.
		p, ferr := r.Find(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if !p.IsActive {
			return nil, domain.ErrProductUnavailable
		}
		return nil, &domain.InsufficientStockError{Available: p.Stock}
	}
	if err != nil {
		return nil, fmt.Errorf("commit decrement: %w", err)
	}
	return &updated, nil
}

func regexQuoteMeta(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
