package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ProductImage is a stored image owned exclusively by its product.
type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	PublicID  string `bson:"public_id" json:"public_id"`
	IsPrimary bool   `bson:"is_primary" json:"is_primary"`
}

// Product represents a catalog item.
type Product struct {
	BaseModel      `bson:",inline"`
	Name           string            `bson:"name" json:"name"`
	Description    string            `bson:"description" json:"description"`
	Price          float64           `bson:"price" json:"price"`
	CategoryID     bson.ObjectID     `bson:"category_id" json:"category_id"`
	Stock          int               `bson:"stock" json:"stock"`
	Images         []ProductImage    `bson:"images" json:"images"`
	Specifications map[string]string `bson:"specifications,omitempty" json:"specifications"`
	Features       []string          `bson:"features,omitempty" json:"features"`
	TechnicalSpecs map[string]string `bson:"technical_specs,omitempty" json:"technical_specs"`
	IsActive       bool              `bson:"is_active" json:"is_active"`
}

// PrimaryImage returns the URL of the primary image, or the first one.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// Category groups products.
type Category struct {
	BaseModel   `bson:",inline"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description"`
	IsActive    bool   `bson:"is_active" json:"is_active"`
}
