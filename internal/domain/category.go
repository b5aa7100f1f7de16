package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BrandAll marks a category shared by every brand.
const BrandAll = "all"

// Category represents a brand-scoped product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	DisplayName string    `json:"display_name,omitempty" db:"display_name"`
	Brand       string    `json:"brand" db:"brand"`
	Slug        string    `json:"slug" db:"slug"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeBrand lowercases a brand and maps "" to BrandAll.
func NormalizeBrand(brand string) string {
	b := strings.ToLower(strings.TrimSpace(brand))
	if b == "" {
		return BrandAll
	}
	return b
}
