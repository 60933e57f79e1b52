package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// BaseModel provides shared fields for all documents.
type BaseModel struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// Stamp assigns a fresh ObjectID and timestamps before insert.
func (b *BaseModel) Stamp() {
	now := time.Now().UTC()
	if b.ID.IsZero() {
		b.ID = bson.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
