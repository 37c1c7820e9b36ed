package domain

// EventKind identifies a broadcast event pushed to connected observers.
type EventKind string

const (
	EventStockUpdate EventKind = "stockUpdate"
	EventOrderPlaced EventKind = "orderPlaced"
	EventOutOfStock  EventKind = "outOfStock"
)

// OrderPlacedEvent is published after every committed stock decrement.
type OrderPlacedEvent struct {
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	RemainingStock int    `json:"remainingStock"`
}

// OutOfStockEvent is published when a commit drives stock to exactly zero.
type OutOfStockEvent struct {
	ProductName string `json:"productName"`
}
