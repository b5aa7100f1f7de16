package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/media"
	"h2o-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProductService() (ProductService, *mockProductRepository, *mockCategoryRepository, *media.Store) {
	products := newMockProductRepository()
	categories := newMockCategoryRepository()
	store, _ := newTestImageStore()
	return NewProductService(products, categories, store, zap.NewNop()), products, categories, store
}

// The stored product price is the lowest positive variant price, falling back
// to the submitted price when no variant has one.
func TestProperty_ProductDisplayPrice(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("price follows the cheapest positive variant", prop.ForAll(
		func(base float64, prices []float64) bool {
			svc, _, _, _ := newTestProductService()

			variants := make([]domain.Variant, 0, len(prices))
			want := base
			found := false
			for i, price := range prices {
				variants = append(variants, domain.Variant{Name: "v" + string(rune('a'+i%26)), Price: price})
				if price > 0 && (!found || price < want) {
					want, found = price, true
				}
			}

			p, err := svc.Create(context.Background(), ProductInput{
				Name:     "Tank",
				Price:    base,
				Variants: variants,
			}, nil)
			if err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}
			return p.Price == want
		},
		gen.Float64Range(0, 50),
		gen.SliceOf(gen.OneGenOf(gen.Const(0.0), gen.Float64Range(0.01, 50))),
	))

	properties.TestingRun(t)
}

func TestProductService_CreateStoresGallery(t *testing.T) {
	svc, repo, _, store := newTestProductService()

	p, err := svc.Create(context.Background(), ProductInput{
		Name:    "Vital 19L",
		Price:   1.5,
		Brand:   " Vital ",
		Gallery: []string{"https://cdn.example.com/vital.png", "/uploads/products/someone-else.png"},
	}, pngUploads(t, "front.png", "back.png"))
	require.NoError(t, err)

	require.Len(t, p.Images, 3)
	assert.Equal(t, "https://cdn.example.com/vital.png", p.Images[0])
	assert.NotContains(t, p.Images, "/uploads/products/someone-else.png")
	assert.True(t, strings.HasPrefix(p.Images[1], "/uploads/products/front"))
	assert.True(t, strings.HasPrefix(p.Images[2], "/uploads/products/back"))
	assert.Equal(t, "vital", p.Brand)
	assert.True(t, strings.HasPrefix(p.Slug, "vital-19l-"))

	stored, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Images, stored.Images)

	for _, url := range p.Images[1:] {
		_, ok := store.LocalPath(media.ScopeProducts, url)
		assert.True(t, ok, "upload %s should be inside the products scope", url)
	}
}

func TestProductService_CreateRollsBackUploads(t *testing.T) {
	products := newMockProductRepository()
	store, fs := newTestImageStore()
	svc := NewProductService(products, newMockCategoryRepository(), store, zap.NewNop())

	products.failNext = errors.New("connection reset")
	_, err := svc.Create(context.Background(), ProductInput{Name: "Tank"}, pngUploads(t, "a.png"))
	require.Error(t, err)

	entries, _ := afero.ReadDir(fs, "uploads/products")
	assert.Empty(t, entries, "uploads should be removed when the row is not saved")
}

// Updating a product deletes exactly the gallery files that were dropped.
func TestProductService_UpdateReconcilesGallery(t *testing.T) {
	products := newMockProductRepository()
	store, fs := newTestImageStore()
	svc := NewProductService(products, newMockCategoryRepository(), store, zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Name: "Tank"}, pngUploads(t, "a.png", "b.png", "c.png"))
	require.NoError(t, err)
	a, b, c := p.Images[0], p.Images[1], p.Images[2]

	updated, err := svc.Update(ctx, p.ID, ProductInput{
		Name:    "Tank",
		Gallery: []string{c, a},
	}, pngUploads(t, "d.png"))
	require.NoError(t, err)

	require.Len(t, updated.Images, 3)
	assert.Equal(t, []string{c, a}, []string(updated.Images[:2]))
	assert.True(t, fileExists(store, fs, media.ScopeProducts, a))
	assert.True(t, fileExists(store, fs, media.ScopeProducts, c))
	assert.True(t, fileExists(store, fs, media.ScopeProducts, updated.Images[2]))
	assert.False(t, fileExists(store, fs, media.ScopeProducts, b), "dropped image should be deleted")
}

// A product cannot take over another product's stored image, so deleting it
// leaves the other product's file alone.
func TestProductService_UpdateCannotTakeOverForeignImages(t *testing.T) {
	products := newMockProductRepository()
	store, fs := newTestImageStore()
	svc := NewProductService(products, newMockCategoryRepository(), store, zap.NewNop())
	ctx := context.Background()

	a, err := svc.Create(ctx, ProductInput{Name: "Tank A"}, pngUploads(t, "a.png"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, ProductInput{Name: "Tank B"}, nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, b.ID, ProductInput{Name: "Tank B", Gallery: []string{a.Images[0]}}, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Images)

	require.NoError(t, svc.Delete(ctx, b.ID))
	assert.True(t, fileExists(store, fs, media.ScopeProducts, a.Images[0]))

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Images, stored.Images)
}

func TestProductService_UpdateWithoutGalleryKeepsImages(t *testing.T) {
	products := newMockProductRepository()
	store, fs := newTestImageStore()
	svc := NewProductService(products, newMockCategoryRepository(), store, zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Name: "Tank", Price: 1}, pngUploads(t, "a.png", "b.png"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, ProductInput{Name: "Tank", Price: 2}, pngUploads(t, "c.png"))
	require.NoError(t, err)

	require.Len(t, updated.Images, 3)
	assert.Equal(t, []string(p.Images), []string(updated.Images[:2]))
	for _, url := range updated.Images {
		assert.True(t, fileExists(store, fs, media.ScopeProducts, url))
	}

	cleared, err := svc.Update(ctx, p.ID, ProductInput{Name: "Tank", Gallery: []string{}}, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.Images)
	for _, url := range updated.Images {
		assert.False(t, fileExists(store, fs, media.ScopeProducts, url))
	}
}

func TestProductService_UpdateKeepsVariantIDs(t *testing.T) {
	svc, _, _, _ := newTestProductService()
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{
		Name:     "Tank",
		Variants: []domain.Variant{{Name: "Refill", Price: 1}, {Name: "New", Price: 5}},
	}, nil)
	require.NoError(t, err)
	refill := p.Variants[0]

	refill.Price = 0.8
	updated, err := svc.Update(ctx, p.ID, ProductInput{
		Name:     "Tank",
		Variants: []domain.Variant{refill, {Name: "Exchange", Price: 2}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, updated.Variants, 2)
	assert.Equal(t, refill.ID, updated.Variants[0].ID)
	assert.NotEqual(t, uuid.Nil, updated.Variants[1].ID)
	assert.Equal(t, 0.8, updated.Price)
}

func TestProductService_DeleteRemovesGalleryFiles(t *testing.T) {
	products := newMockProductRepository()
	store, fs := newTestImageStore()
	svc := NewProductService(products, newMockCategoryRepository(), store, zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Name: "Tank"}, pngUploads(t, "a.png", "b.png"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	for _, url := range p.Images {
		assert.False(t, fileExists(store, fs, media.ScopeProducts, url))
	}

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, repository.ErrProductNotFound))
}

func TestProductService_Validation(t *testing.T) {
	svc, _, _, _ := newTestProductService()
	unknown := uuid.New()

	tests := []struct {
		name  string
		input ProductInput
		want  error
	}{
		{"missing name", ProductInput{Price: 1}, ErrNameRequired},
		{"negative price", ProductInput{Name: "Tank", Price: -1}, ErrInvalidPrice},
		{"unnamed variant", ProductInput{Name: "Tank", Variants: []domain.Variant{{Price: 1}}}, ErrInvalidVariants},
		{"negative stock", ProductInput{Name: "Tank", Variants: []domain.Variant{{Name: "v", Stock: -1}}}, ErrInvalidVariants},
		{"unknown category", ProductInput{Name: "Tank", CategoryID: &unknown}, ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input, nil)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestProductService_ListFilter(t *testing.T) {
	svc, repo, _, _ := newTestProductService()

	_, err := svc.List(context.Background(), ProductFilter{Brand: "All", Category: "all"})
	require.NoError(t, err)
	assert.Equal(t, repository.ProductFilter{}, repo.lastList)

	_, err = svc.List(context.Background(), ProductFilter{Brand: "vital", Category: "vital_bottles"})
	require.NoError(t, err)
	assert.Equal(t, repository.ProductFilter{Brand: "vital", CategorySlug: "vital_bottles"}, repo.lastList)
}
