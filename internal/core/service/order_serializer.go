package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/core/domain"
	"github.com/rvishnu/stockdesk/internal/port"
)

// OrderResult resolves a submitted order request exactly once.
type OrderResult struct {
	Order          domain.Order
	Product        *domain.Product
	RemainingStock int
	Err            error
}

type orderRequest struct {
	order     domain.Order
	productID primitive.ObjectID
	result    chan OrderResult // buffered 1, written exactly once
}

// OrderSerializer linearizes stock decrements against the ledger. Requests
// enter a FIFO channel drained by a single consumer goroutine, so exactly
// one mutation is in flight at a time and no two requests can observe and
// decrement the same product concurrently. The serializer is process-local:
// it assumes one authoritative process mutating the ledger.
type OrderSerializer struct {
	ledger      port.StockLedger
	broadcaster port.Broadcaster
	logger      *zap.Logger
	opTimeout   time.Duration

	requests  chan orderRequest
	done      chan struct{}
	closeOnce sync.Once
}

func NewOrderSerializer(ledger port.StockLedger, broadcaster port.Broadcaster, logger *zap.Logger, queueSize int, opTimeout time.Duration) *OrderSerializer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &OrderSerializer{
		ledger:      ledger,
		broadcaster: broadcaster,
		logger:      logger,
		opTimeout:   opTimeout,
		requests:    make(chan orderRequest, queueSize),
		done:        make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (s *OrderSerializer) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Close stops intake. Queued requests are still processed; Done is closed
// once the consumer has drained them.
func (s *OrderSerializer) Close() {
	s.closeOnce.Do(func() { close(s.requests) })
}

func (s *OrderSerializer) Done() <-chan struct{} { return s.done }

// Submit validates the request, enqueues it, and blocks until it has been
// dequeued and processed in FIFO order. Malformed requests fail immediately
// without entering the queue. If ctx expires while waiting, only the caller
// is released: the request stays queued and is still processed, and its
// buffered result channel keeps the resolve from blocking the consumer.
func (s *OrderSerializer) Submit(ctx context.Context, productID string, quantity int) OrderResult {
	if quantity <= 0 {
		return OrderResult{Err: fmt.Errorf("quantity must be a positive integer: %w", domain.ErrInvalidRequest)}
	}
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return OrderResult{Err: fmt.Errorf("malformed product id %q: %w", productID, domain.ErrInvalidRequest)}
	}

	req := orderRequest{
		order: domain.Order{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
			Status:    domain.OrderStatusPending,
			CreatedAt: time.Now(),
		},
		productID: oid,
		result:    make(chan OrderResult, 1),
	}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return OrderResult{Order: req.order, Err: ctx.Err()}
	}

	select {
	case res := <-req.result:
		return res
	case <-ctx.Done():
		return OrderResult{Order: req.order, Err: ctx.Err()}
	}
}

func (s *OrderSerializer) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx.Err())
			return
		case req, ok := <-s.requests:
			if !ok {
				return
			}
			req.result <- s.process(req)
		}
	}
}

// drain resolves everything still queued at shutdown so no caller hangs.
func (s *OrderSerializer) drain(cause error) {
	for {
		select {
		case req, ok := <-s.requests:
			if !ok {
				return
			}
			req.order.Status = domain.OrderStatusRejected
			req.result <- OrderResult{Order: req.order, Err: fmt.Errorf("order processing stopped: %w", cause)}
		default:
			return
		}
	}
}

// process runs the dequeue-validate-commit-broadcast sequence for a single
// request. Validation reads the ledger's current state, not any value
// cached at submit time. Errors resolve only this request; the loop always
// advances to the next one.
func (s *OrderSerializer) process(req orderRequest) OrderResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	order := req.order
	order.Status = domain.OrderStatusRejected

	p, err := s.ledger.Find(ctx, req.productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OrderResult{Order: order, Err: fmt.Errorf("product %s: %w", order.ProductID, domain.ErrNotFound)}
		}
		return OrderResult{Order: order, Err: fmt.Errorf("read product: %w", err)}
	}
	if !p.IsActive {
		return OrderResult{Order: order, Err: fmt.Errorf("product %q: %w", p.Name, domain.ErrProductUnavailable)}
	}
	if p.Stock < order.Quantity {
		return OrderResult{Order: order, Err: &domain.InsufficientStockError{Available: p.Stock}}
	}

	updated, err := s.ledger.CommitDecrement(ctx, req.productID, order.Quantity)
	if err != nil {
		s.logger.Error("commit decrement failed",
			zap.String("order_id", order.ID),
			zap.String("product_id", order.ProductID),
			zap.Error(err),
		)
		return OrderResult{Order: order, Err: fmt.Errorf("commit decrement: %w", err)}
	}

	order.Status = domain.OrderStatusConfirmed
	s.publishAfterCommit(ctx, updated, order.Quantity)

	return OrderResult{Order: order, Product: updated, RemainingStock: updated.Stock}
}

// publishAfterCommit pushes the post-commit events. Publish failures are
// logged and never fail the order outcome.
func (s *OrderSerializer) publishAfterCommit(ctx context.Context, p *domain.Product, quantity int) {
	snapshot, err := s.ledger.ListActive(ctx)
	if err != nil {
		s.logger.Warn("stock snapshot failed", zap.Error(err))
	} else if err := s.broadcaster.Publish(ctx, domain.EventStockUpdate, snapshot); err != nil {
		s.logger.Warn("stockUpdate publish failed", zap.Error(err))
	}

	placed := domain.OrderPlacedEvent{ProductName: p.Name, Quantity: quantity, RemainingStock: p.Stock}
	if err := s.broadcaster.Publish(ctx, domain.EventOrderPlaced, placed); err != nil {
		s.logger.Warn("orderPlaced publish failed", zap.Error(err))
	}

	if p.Stock == 0 {
		if err := s.broadcaster.Publish(ctx, domain.EventOutOfStock, domain.OutOfStockEvent{ProductName: p.Name}); err != nil {
			s.logger.Warn("outOfStock publish failed", zap.Error(err))
		}
	}
}
