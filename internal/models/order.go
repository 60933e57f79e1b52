package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Order statuses. ready_for_pickup reflects the in-store pickup model.
const (
	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// OrderStatuses lists every valid status value.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusReadyForPickup,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether status is a known enum value.
func ValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a product line at checkout time, decoupled
// from later product edits.
type OrderItem struct {
	ProductID bson.ObjectID `bson:"product_id" json:"product_id"`
	Name      string        `bson:"name" json:"name"`
	Price     float64       `bson:"price" json:"price"`
	Quantity  int           `bson:"quantity" json:"quantity"`
	Image     string        `bson:"image,omitempty" json:"image"`
}

// BillingAddress is embedded on the order. FullName, Phone, AddressLine
// and City are required at checkout.
type BillingAddress struct {
	FullName    string `bson:"full_name" json:"full_name"`
	Phone       string `bson:"phone" json:"phone"`
	Email       string `bson:"email,omitempty" json:"email"`
	AddressLine string `bson:"address_line" json:"address_line"`
	City        string `bson:"city" json:"city"`
	PostalCode  string `bson:"postal_code,omitempty" json:"postal_code"`
}

// Order is an immutable snapshot of a checked-out cart.
type Order struct {
	BaseModel      `bson:",inline"`
	UserID         bson.ObjectID  `bson:"user_id" json:"user_id"`
	OrderNumber    string         `bson:"order_number" json:"order_number"`
	Items          []OrderItem    `bson:"items" json:"items"`
	TotalAmount    float64        `bson:"total_amount" json:"total_amount"`
	Status         string         `bson:"status" json:"status"`
	BillingAddress BillingAddress `bson:"billing_address" json:"billing_address"`
	Notes          string         `bson:"notes,omitempty" json:"notes"`
	PlacedAt       time.Time      `bson:"placed_at" json:"placed_at"`
}

// Cancellable reports whether a customer may still cancel the order.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ComputeTotal returns the sum of price times quantity over items.
func ComputeTotal(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
