package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	Slug        string     `json:"slug" db:"slug"`
	Volume      string     `json:"volume" db:"volume"`
	Brand       string     `json:"brand" db:"brand"`
	CategoryID  *uuid.UUID `json:"category_id" db:"category_id"`
	Images      Gallery    `json:"images" db:"images"`
	Variants    []Variant  `json:"variants"`
	Category    *Category  `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Variant is a purchasable sub-option of a product, e.g. a tank size.
type Variant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	SKU       string    `json:"sku,omitempty" db:"sku"`
	Image     string    `json:"image,omitempty" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PrimaryImage returns the first gallery entry, or "" for an empty gallery.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// DisplayPrice returns the lowest positive variant price, or fallback when no
// variant carries a positive price.
func DisplayPrice(variants []Variant, fallback float64) float64 {
	price := fallback
	found := false
	for _, v := range variants {
		if v.Price <= 0 {
			continue
		}
		if !found || v.Price < price {
			price = v.Price
			found = true
		}
	}
	return price
}

// Gallery is the ordered list of image URLs of a product. It is stored as a
// JSONB array.
type Gallery []string

// Value implements driver.Valuer.
func (g Gallery) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (g *Gallery) Scan(src interface{}) error {
	return scanJSON(src, (*[]string)(g))
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON source type %T", src)
	}
}
