package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/adapter/broadcast"
	"github.com/rvishnu/stockdesk/internal/adapter/storage"
	"github.com/rvishnu/stockdesk/internal/core/domain"
	"github.com/rvishnu/stockdesk/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mongo   *mongo.Client
	repo    *storage.ProductRepository
	channel string
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, err := storage.Connect(ctx, mongoURI)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	repo := storage.NewProductRepository(client.Database("stockdesk_test"))

	return &testEnv{
		redis:   rdb,
		mongo:   client,
		repo:    repo,
		channel: fmt.Sprintf("stockdesk:test:%d", time.Now().UnixNano()),
		cleanup: func() {
			rdb.Close()
			client.Disconnect(context.Background())
		},
	}
}

func (e *testEnv) seedProduct(t *testing.T, stock int) *domain.Product {
	t.Helper()
	ctx := context.Background()
	p := &domain.Product{
		ID:                primitive.NewObjectID(),
		Name:              fmt.Sprintf("integration-%d", time.Now().UnixNano()),
		Price:             100,
		Stock:             stock,
		Category:          "Test",
		IsActive:          true,
		LowStockThreshold: domain.DefaultLowStockThreshold,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if err := e.repo.Insert(ctx, p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	t.Cleanup(func() { e.repo.Delete(context.Background(), p.ID) })
	return p
}

func TestIntegration_ConcurrentOrdersNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialStock := 10
	p := env.seedProduct(t, initialStock)

	publisher := broadcast.NewPublisher(env.redis, env.channel)
	serializer := service.NewOrderSerializer(env.repo, publisher, zap.NewNop(), 100, 5*time.Second)
	serializer.Start(context.Background())

	totalRequests := 20
	var successCount, stockFailCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := serializer.Submit(ctx, p.ID.Hex(), 1)
			switch {
			case res.Err == nil:
				successCount.Add(1)
			default:
				stockFailCount.Add(1)
			}
		}()
	}
	wg.Wait()

	serializer.Close()
	<-serializer.Done()

	if got := successCount.Load(); got != int32(initialStock) {
		t.Errorf("expected %d successful orders, got %d", initialStock, got)
	}
	if got := stockFailCount.Load(); got != int32(totalRequests-initialStock) {
		t.Errorf("expected %d rejected orders, got %d", totalRequests-initialStock, got)
	}

	final, err := env.repo.Find(ctx, p.ID)
	if err != nil {
		t.Fatalf("read final stock: %v", err)
	}
	if final.Stock != 0 {
		t.Errorf("expected final stock 0, got %d", final.Stock)
	}
}

func TestIntegration_EventsReachSubscriber(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	p := env.seedProduct(t, 1)

	sub := env.redis.Subscribe(ctx, env.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	msgs := sub.Channel()

	publisher := broadcast.NewPublisher(env.redis, env.channel)
	serializer := service.NewOrderSerializer(env.repo, publisher, zap.NewNop(), 100, 5*time.Second)
	serializer.Start(context.Background())
	defer func() {
		serializer.Close()
		<-serializer.Done()
	}()

	res := serializer.Submit(ctx, p.ID.Hex(), 1)
	if res.Err != nil {
		t.Fatalf("order failed: %v", res.Err)
	}
	if res.RemainingStock != 0 {
		t.Fatalf("expected remaining stock 0, got %d", res.RemainingStock)
	}

	// the commit drove stock to zero, so the stream must carry
	// stockUpdate, orderPlaced and outOfStock
	want := map[domain.EventKind]bool{
		domain.EventStockUpdate: false,
		domain.EventOrderPlaced: false,
		domain.EventOutOfStock:  false,
	}
	deadline := time.After(5 * time.Second)
	for remaining := len(want); remaining > 0; {
		select {
		case msg := <-msgs:
			var envelope broadcast.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if seen, tracked := want[envelope.Event]; tracked && !seen {
				want[envelope.Event] = true
				remaining--
			}
		case <-deadline:
			t.Fatalf("timed out waiting for events, still missing: %v", want)
		}
	}
}

func TestIntegration_RelayForwardsToWebSocketHub(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	logger := zap.NewNop()
	hub := broadcast.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	relay := broadcast.NewRelay(env.redis, env.channel, hub, logger)
	go relay.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the relay and the hub a beat to register
	time.Sleep(100 * time.Millisecond)

	publisher := broadcast.NewPublisher(env.redis, env.channel)
	if err := publisher.Publish(ctx, domain.EventOutOfStock, domain.OutOfStockEvent{ProductName: "Milk"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var envelope broadcast.Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Event != domain.EventOutOfStock {
		t.Errorf("expected outOfStock event, got %q", envelope.Event)
	}
}

func TestIntegration_ValidationAgainstLiveStore(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	publisher := broadcast.NewPublisher(env.redis, env.channel)
	serializer := service.NewOrderSerializer(env.repo, publisher, zap.NewNop(), 100, 5*time.Second)
	serializer.Start(context.Background())
	defer func() {
		serializer.Close()
		<-serializer.Done()
	}()

	// unknown product
	res := serializer.Submit(ctx, primitive.NewObjectID().Hex(), 1)
	if res.Err == nil {
		t.Error("expected error for unknown product")
	}

	// deactivated product
	p := env.seedProduct(t, 10)
	p.IsActive = false
	if err := env.repo.Update(ctx, p); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	res = serializer.Submit(ctx, p.ID.Hex(), 1)
	if res.Err == nil {
		t.Error("expected error for inactive product")
	}

	// stock untouched by the rejected order
	final, err := env.repo.Find(ctx, p.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if final.Stock != 10 {
		t.Errorf("expected stock 10, got %d", final.Stock)
	}
}
