package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Ingredient is a single entry in a recipe's ingredient list. Quantity is
// optional: entries like "salt, to taste" carry no numeric amount.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

// IngredientList stores a recipe's ingredients as JSONB
type IngredientList []Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Names returns the raw ingredient names in list order.
func (l IngredientList) Names() []string {
	names := make([]string, len(l))
	for i, ing := range l {
		names[i] = ing.Name
	}
	return names
}

// Nutrition holds a recipe's per-serving nutrition estimate, stored as JSONB.
type Nutrition struct {
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	PerServing bool    `json:"per_serving"`
}

// Value implements the driver.Valuer interface
func (n Nutrition) Value() (driver.Value, error) {
	return json.Marshal(n)
}

// Scan implements the sql.Scanner interface
func (n *Nutrition) Scan(value interface{}) error {
	if value == nil {
		*n = Nutrition{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, n)
}

type Recipe struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
	Title              string           `gorm:"size:255;not null" json:"title"`
	Description        string           `gorm:"type:text" json:"description"`
	Ingredients        IngredientList   `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps              JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Cuisine            string           `gorm:"size:50" json:"cuisine"`
	Difficulty         string           `gorm:"size:10;default:'easy'" json:"difficulty"`
	CookingTimeMinutes int              `json:"cooking_time_minutes"`
	Servings           int              `json:"servings"`
	DietaryTags        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_tags"`
	ImageURL           string           `gorm:"size:255" json:"image_url,omitempty"`
	Nutrition          Nutrition        `gorm:"type:jsonb" json:"nutrition"`
	Embedding          *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	AverageRating      float64          `gorm:"default:0" json:"average_rating"`
	RatingCount        int              `gorm:"default:0" json:"rating_count"`
	CreatedBy          uuid.UUID        `gorm:"type:uuid" json:"created_by"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
