package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/media"
	"h2o-shop/internal/repository"
	"h2o-shop/internal/slug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStore persists uploaded images. Remove is best-effort.
type ImageStore interface {
	SaveAll(scope string, files []*multipart.FileHeader) ([]string, error)
	Remove(scope string, urls []string) int
}

// ProductInput carries a submitted product form. Gallery holds the image URLs
// to keep, in order; uploads are appended after them. On update a nil Gallery
// keeps the stored gallery as it is.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Volume      string
	Brand       string
	CategoryID  *uuid.UUID
	Gallery     []string
	Variants    []domain.Variant
}

// ProductFilter selects products by brand and category slug. "all" or ""
// disables either filter.
type ProductFilter struct {
	Brand    string
	Category string
}

// ProductService defines the catalog business rules
type ProductService interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	images     ImageStore
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	images ImageStore,
	logger *zap.Logger,
) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		images:     images,
		logger:     logger,
	}
}

func (s *productService) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	return s.repo.List(ctx, repository.ProductFilter{
		Brand:        filterValue(filter.Brand),
		CategorySlug: filterValue(filter.Category),
	})
}

func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, domain.BrandAll) {
		return ""
	}
	return v
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *productService) validate(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrNameRequired
	}
	if input.Price < 0 {
		return ErrInvalidPrice
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Name) == "" || v.Price < 0 || v.Stock < 0 {
			return ErrInvalidVariants
		}
	}

	if input.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return ErrUnknownCategory
			}
			return err
		}
	}
	return nil
}

// apply copies the submitted fields onto p. The stored price follows the
// cheapest positive variant when there is one.
func apply(p *domain.Product, input ProductInput) {
	p.Name = strings.TrimSpace(input.Name)
	p.Description = input.Description
	p.Volume = strings.TrimSpace(input.Volume)
	p.Brand = strings.ToLower(strings.TrimSpace(input.Brand))
	p.CategoryID = input.CategoryID
	p.Variants = input.Variants
	if p.Variants == nil {
		p.Variants = []domain.Variant{}
	}
	p.Price = domain.DisplayPrice(p.Variants, input.Price)
	p.Slug = slug.Make(p.Name, "-") + "-" + p.ID.String()[:8]
}

// Create stores uploads under the products scope and saves the product with
// gallery = submitted URLs ++ uploads. Submitted URLs that point at stored
// product uploads are dropped since those files belong to other products.
func (s *productService) Create(ctx context.Context, input ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	uploaded, err := s.images.SaveAll(media.ScopeProducts, uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	apply(product, input)
	linked := externalURLs(input.Gallery)
	product.Images = media.Reconcile(linked, linked, uploaded).Final

	if err := s.repo.Create(ctx, product); err != nil {
		s.images.Remove(media.ScopeProducts, uploaded)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.Int("images", len(product.Images)),
		zap.Int("variants", len(product.Variants)),
	)
	return product, nil
}

// Update replaces the product fields, reconciles the gallery against the kept
// URLs and deletes the orphaned files once the row is committed. Kept URLs
// outside the stored gallery are ignored.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.images.SaveAll(media.ScopeProducts, uploads)
	if err != nil {
		return nil, err
	}

	kept := input.Gallery
	if kept == nil {
		kept = product.Images
	}
	plan := media.Reconcile(product.Images, kept, uploaded)

	apply(product, input)
	product.Images = plan.Final
	product.Category = nil
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, product); err != nil {
		s.images.Remove(media.ScopeProducts, uploaded)
		return nil, err
	}

	removed := s.images.Remove(media.ScopeProducts, plan.Orphaned)
	s.logger.Info("Product updated",
		zap.String("product_id", product.ID.String()),
		zap.Int("uploaded", len(uploaded)),
		zap.Int("orphaned", len(plan.Orphaned)),
		zap.Int("removed", removed),
	)
	return product, nil
}

func externalURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if !media.InScope(media.ScopeProducts, url) {
			out = append(out, url)
		}
	}
	return out
}

// Delete removes the product and then, best-effort, every gallery file.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.images.Remove(media.ScopeProducts, product.Images)
	return nil
}
