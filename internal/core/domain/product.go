package domain

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultLowStockThreshold = 5

// Stock status values derived from stock vs. lowStockThreshold.
const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description" json:"description"`
	Price             float64            `bson:"price" json:"price"`
	Stock             int                `bson:"stock" json:"stock"`
	Category          string             `bson:"category" json:"category"`
	SKU               string             `bson:"sku,omitempty" json:"sku,omitempty"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	LowStockThreshold int                `bson:"lowStockThreshold" json:"lowStockThreshold"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p Product) StockStatus() string {
	switch {
	case p.Stock == 0:
		return StockStatusOut
	case p.Stock <= p.LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// MarshalJSON includes the derived stockStatus field on every rendering.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		StockStatus string `json:"stockStatus"`
	}{alias(p), p.StockStatus()})
}
