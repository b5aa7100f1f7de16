package service

import (
	"context"

	"h2o-shop/internal/cart"
	"h2o-shop/internal/domain"
	"h2o-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single requested line.
const MaxLineQuantity = 1000

// CartItem is one requested line of a cart summary.
type CartItem struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// CartSummary is the priced, merged view of a shopper's cart.
type CartSummary struct {
	Items []cart.Line     `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// CartService prices a client-held cart against the current catalog
type CartService interface {
	Summarize(ctx context.Context, items []CartItem) (*CartSummary, error)
}

type cartService struct {
	products repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(products repository.ProductRepository) CartService {
	return &cartService{products: products}
}

// Summarize replays items into a fresh cart so lines with the same product and
// variant merge exactly as they do in the storefront.
func (s *cartService) Summarize(ctx context.Context, items []CartItem) (*CartSummary, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	c := cart.New()
	products := make(map[uuid.UUID]*domain.Product)

	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}

		p, ok := products[item.ProductID]
		if !ok {
			var err error
			p, err = s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			products[item.ProductID] = p
		}

		var variant *domain.Variant
		if item.VariantID != nil {
			variant = findVariant(p, *item.VariantID)
			if variant == nil {
				return nil, ErrUnknownVariant
			}
		}

		c.AddToCart(p, variant)
		if item.Quantity > 1 {
			c.UpdateLineQuantity(cart.KeyFor(p, variant), item.Quantity-1)
		}
	}

	return &CartSummary{
		Items: c.Lines(),
		Count: c.Count(),
		Total: c.Total(),
	}, nil
}

func findVariant(p *domain.Product, id uuid.UUID) *domain.Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
