package service

import (
	"context"
	"errors"
	"testing"

	"h2o-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCartProduct(t *testing.T, repo *mockProductRepository) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:     uuid.New(),
		Name:   "Vital 19L",
		Price:  1.5,
		Images: domain.Gallery{"/uploads/products/vital.png"},
		Variants: []domain.Variant{
			{ID: uuid.New(), Name: "Refill", Price: 0.75},
			{ID: uuid.New(), Name: "New Tank", Price: 5, Image: "/uploads/products/tank.png"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestCartService_SummarizeMergesLines(t *testing.T) {
	repo := newMockProductRepository()
	p := seedCartProduct(t, repo)
	svc := NewCartService(repo)

	refill := p.Variants[0].ID
	summary, err := svc.Summarize(context.Background(), []CartItem{
		{ProductID: p.ID, VariantID: &refill, Quantity: 2},
		{ProductID: p.ID, Quantity: 1},
		{ProductID: p.ID, VariantID: &refill, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, summary.Items, 2)
	assert.Equal(t, 4, summary.Count)
	assert.True(t, decimal.NewFromFloat(3.75).Equal(summary.Total), "total was %s", summary.Total)

	first := summary.Items[0]
	assert.Equal(t, "Vital 19L (Refill)", first.Name)
	assert.Equal(t, 3, first.Quantity)
	assert.Equal(t, "/uploads/products/vital.png", first.Image)
}

func TestCartService_SummarizeErrors(t *testing.T) {
	repo := newMockProductRepository()
	p := seedCartProduct(t, repo)
	svc := NewCartService(repo)
	foreign := uuid.New()

	tests := []struct {
		name  string
		items []CartItem
		want  error
	}{
		{"empty", nil, ErrEmptyCart},
		{"zero quantity", []CartItem{{ProductID: p.ID, Quantity: 0}}, ErrInvalidQuantity},
		{"quantity over cap", []CartItem{{ProductID: p.ID, Quantity: MaxLineQuantity + 1}}, ErrInvalidQuantity},
		{"foreign variant", []CartItem{{ProductID: p.ID, VariantID: &foreign, Quantity: 1}}, ErrUnknownVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summarize(context.Background(), tt.items)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
			assert.True(t, IsValidation(err))
		})
	}
}
