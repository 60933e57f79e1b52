package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	ColUsers          = "users"
	ColProducts       = "products"
	ColCategories     = "categories"
	ColOrders         = "orders"
	ColCarts          = "carts"
	ColServices       = "services"
	ColPasswordResets = "password_resets"
)

var db *mongo.Database

// Connect initializes the MongoDB connection and ensures indexes.
func Connect(uri, name string) *mongo.Database {
	if db != nil {
		return db
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping mongodb: %v", err)
	}

	conn := client.Database(name)

	if err := ensureIndexes(ctx, conn); err != nil {
		log.Printf("warning: failed to ensure indexes: %v", err)
	}

	db = conn
	return db
}

// DB exposes the initialized mongo.Database instance.
func DB() *mongo.Database {
	return db
}

// Disconnect closes the underlying client connection.
func Disconnect(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, conn *mongo.Database) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColCategories, bson.D{{Key: "name", Value: 1}}, true},
		{ColServices, bson.D{{Key: "name", Value: 1}}, true},
		{ColCarts, bson.D{{Key: "user_id", Value: 1}}, true},
		{ColOrders, bson.D{{Key: "user_id", Value: 1}}, false},
		{ColOrders, bson.D{{Key: "status", Value: 1}}, false},
		{ColOrders, bson.D{{Key: "order_number", Value: 1}}, true},
		{ColProducts, bson.D{{Key: "category_id", Value: 1}}, false},
		{ColProducts, bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}, false},
		{ColPasswordResets, bson.D{{Key: "token", Value: 1}}, true},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := conn.Collection(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}

	return nil
}
