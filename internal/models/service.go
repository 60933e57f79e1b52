package models

// Service is a marketing entry shown on the services page and managed
// from the admin console.
type Service struct {
	BaseModel   `bson:",inline"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Features    []string `bson:"features,omitempty" json:"features"`
	Icon        string   `bson:"icon,omitempty" json:"icon"`
	IsActive    bool     `bson:"is_active" json:"is_active"`
}
