package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/core/domain"
	"github.com/rvishnu/stockdesk/internal/port"
)

const defaultCategory = "General"

// ProductService owns product CRUD for the admin console. It never
// decrements stock for orders; that path belongs to the OrderSerializer.
type ProductService struct {
	repo        port.ProductRepository
	broadcaster port.Broadcaster
	logger      *zap.Logger
}

func NewProductService(repo port.ProductRepository, broadcaster port.Broadcaster, logger *zap.Logger) *ProductService {
	return &ProductService{repo: repo, broadcaster: broadcaster, logger: logger}
}

type CreateProductInput struct {
	Name              string
	Description       string
	Price             float64
	Stock             int
	Category          string
	SKU               string
	LowStockThreshold *int
}

// UpdateProductInput carries partial updates: nil fields are left unchanged.
type UpdateProductInput struct {
	Name              *string
	Description       *string
	Price             *float64
	Stock             *int
	Category          *string
	SKU               *string
	LowStockThreshold *int
	IsActive          *bool
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrInvalidRequest)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("price must be non-negative: %w", domain.ErrInvalidRequest)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("stock must be non-negative: %w", domain.ErrInvalidRequest)
	}
	threshold := domain.DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return nil, fmt.Errorf("lowStockThreshold must be non-negative: %w", domain.ErrInvalidRequest)
		}
		threshold = *in.LowStockThreshold
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}

	now := time.Now()
	p := &domain.Product{
		ID:                primitive.NewObjectID(),
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		Price:             in.Price,
		Stock:             in.Stock,
		Category:          category,
		SKU:               strings.TrimSpace(in.SKU),
		IsActive:          true,
		LowStockThreshold: threshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	s.broadcastSnapshot(ctx)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, oid)
}

func (s *ProductService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListActive(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.ByCategory(ctx, category)
}

func (s *ProductService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	return s.repo.Search(ctx, query)
}

func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Find(ctx, oid)
	if err != nil {
		return nil, err
	}

	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("price must be non-negative: %w", domain.ErrInvalidRequest)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, fmt.Errorf("stock must be non-negative: %w", domain.ErrInvalidRequest)
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		return nil, fmt.Errorf("lowStockThreshold must be non-negative: %w", domain.ErrInvalidRequest)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name must be non-empty: %w", domain.ErrInvalidRequest)
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	s.broadcastSnapshot(ctx)
	return p, nil
}

// SetStock replaces the stock count outright (admin restock), returning the
// updated product and the previous count.
func (s *ProductService) SetStock(ctx context.Context, id string, stock int) (*domain.Product, int, error) {
	if stock < 0 {
		return nil, 0, fmt.Errorf("stock must be non-negative: %w", domain.ErrInvalidRequest)
	}
	oid, err := parseProductID(id)
	if err != nil {
		return nil, 0, err
	}
	p, err := s.repo.Find(ctx, oid)
	if err != nil {
		return nil, 0, err
	}

	oldStock := p.Stock
	p.Stock = stock
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, 0, err
	}

	s.logger.Info("stock updated",
		zap.String("product_id", p.ID.Hex()),
		zap.String("name", p.Name),
		zap.Int("old_stock", oldStock),
		zap.Int("new_stock", stock),
	)
	s.broadcastSnapshot(ctx)
	return p, oldStock, nil
}

func (s *ProductService) ToggleActive(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Find(ctx, oid)
	if err != nil {
		return nil, err
	}

	p.IsActive = !p.IsActive
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.broadcastSnapshot(ctx)
	return p, nil
}

// SoftDelete deactivates the product; it stays in the store.
func (s *ProductService) SoftDelete(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Find(ctx, oid)
	if err != nil {
		return nil, err
	}

	p.IsActive = false
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product soft deleted", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	s.broadcastSnapshot(ctx)
	return p, nil
}

// HardDelete removes the document permanently.
func (s *ProductService) HardDelete(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Find(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, oid); err != nil {
		return nil, err
	}

	s.logger.Info("product permanently deleted", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	s.broadcastSnapshot(ctx)
	return p, nil
}

// broadcastSnapshot keeps connected consoles in sync after admin mutations.
func (s *ProductService) broadcastSnapshot(ctx context.Context) {
	snapshot, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Warn("stock snapshot failed", zap.Error(err))
		return
	}
	if err := s.broadcaster.Publish(ctx, domain.EventStockUpdate, snapshot); err != nil {
		s.logger.Warn("stockUpdate publish failed", zap.Error(err))
	}
}

func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("malformed product id %q: %w", id, domain.ErrInvalidRequest)
	}
	return oid, nil
}
