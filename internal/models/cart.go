package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartItem is a line in a user's cart with product fields denormalized
// for display.
type CartItem struct {
	ProductID bson.ObjectID `bson:"product_id" json:"product_id"`
	Name      string        `bson:"name" json:"name"`
	Price     float64       `bson:"price" json:"price"`
	Quantity  int           `bson:"quantity" json:"quantity"`
	Image     string        `bson:"image,omitempty" json:"image"`
}

// Cart is the single server-persisted cart per user.
type Cart struct {
	BaseModel `bson:",inline"`
	UserID    bson.ObjectID `bson:"user_id" json:"user_id"`
	Items     []CartItem    `bson:"items" json:"items"`
}

// Subtotal returns the sum of price times quantity over cart items.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
