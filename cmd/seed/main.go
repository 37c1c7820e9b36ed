// Command seed loads the starter catalog and an admin account into MongoDB.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rvishnu/stockdesk/internal/adapter/storage"
	"github.com/rvishnu/stockdesk/internal/config"
	"github.com/rvishnu/stockdesk/internal/core/domain"
	"github.com/rvishnu/stockdesk/internal/core/service"

	"go.uber.org/zap"
)

type seedProduct struct {
	name        string
	description string
	price       float64
	stock       int
	category    string
	sku         string
	threshold   int
}

var catalog = []seedProduct{
	{"Milk", "Fresh whole milk, 1 liter", 100, 25, "Dairy", "MILK-001", 5},
	{"Bread", "Whole wheat bread loaf", 200, 15, "Bakery", "BREAD-001", 3},
	{"Cheese", "Cheddar cheese block, 200g", 300, 0, "Dairy", "CHEESE-001", 2},
	{"Eggs", "Farm fresh eggs, dozen", 150, 30, "Dairy", "EGGS-001", 10},
	{"Rice", "Basmati rice, 1kg", 250, 20, "Grains", "RICE-001", 5},
	{"Apples", "Fresh red apples, 1kg", 180, 12, "Fruits", "APPLE-001", 5},
}

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := storage.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect mongo: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)

	productRepo := storage.NewProductRepository(db)
	userRepo := storage.NewUserRepository(db)
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create product indexes: %v", err)
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create user indexes: %v", err)
	}

	now := time.Now()
	for _, sp := range catalog {
		p := &domain.Product{
			ID:                primitive.NewObjectID(),
			Name:              sp.name,
			Description:       sp.description,
			Price:             sp.price,
			Stock:             sp.stock,
			Category:          sp.category,
			SKU:               sp.sku,
			IsActive:          true,
			LowStockThreshold: sp.threshold,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		err := productRepo.Insert(ctx, p)
		var dup *domain.DuplicateKeyError
		if errors.As(err, &dup) {
			log.Printf("product %q already exists, skipping", sp.name)
			continue
		}
		if err != nil {
			log.Fatalf("failed to seed product %q: %v", sp.name, err)
		}
		log.Printf("seeded product %q (stock %d)", sp.name, sp.stock)
	}

	adminEmail := getenvDefault("ADMIN_EMAIL", "admin@stockdesk.local")
	adminPassword := getenvDefault("ADMIN_PASSWORD", "admin123")

	users := service.NewUserService(userRepo, zap.NewNop())
	_, err = users.Create(ctx, service.CreateUserInput{
		Name:     getenvDefault("ADMIN_NAME", "Admin"),
		Email:    adminEmail,
		Password: adminPassword,
		Role:     domain.RoleAdmin,
	})
	var dup *domain.DuplicateKeyError
	if errors.As(err, &dup) {
		log.Printf("admin %q already exists, skipping", adminEmail)
	} else if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	} else {
		log.Printf("seeded admin %q", adminEmail)
	}

	log.Println("seeding complete")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
