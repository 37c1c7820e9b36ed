package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rvishnu/stockdesk/internal/adapter/broadcast"
	"github.com/rvishnu/stockdesk/internal/adapter/handler"
	"github.com/rvishnu/stockdesk/internal/adapter/storage"
	"github.com/rvishnu/stockdesk/internal/auth"
	"github.com/rvishnu/stockdesk/internal/config"
	"github.com/rvishnu/stockdesk/internal/core/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB
	client, err := storage.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo connection failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))

	productRepo := storage.NewProductRepository(db)
	userRepo := storage.NewUserRepository(db)
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("product indexes failed", zap.Error(err))
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("user indexes failed", zap.Error(err))
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Broadcast chain: publisher -> redis channel -> relay -> websocket hub
	hub := broadcast.NewHub(logger)
	publisher := broadcast.NewPublisher(rdb, cfg.EventChannel)
	relay := broadcast.NewRelay(rdb, cfg.EventChannel, hub, logger)

	// Core services
	serializer := service.NewOrderSerializer(productRepo, publisher, logger, cfg.OrderQueueSize, cfg.OrderTimeout)
	serializer.Start(context.Background())
	products := service.NewProductService(productRepo, publisher, logger)
	users := service.NewUserService(userRepo, logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	h := handler.New(products, users, serializer, tokens, hub, logger)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: h.Router()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", zap.Error(err))
	}

	// Let queued orders run to completion before disconnecting the stores.
	serializer.Close()
	<-serializer.Done()
	logger.Info("order queue drained, shutting down")
}
