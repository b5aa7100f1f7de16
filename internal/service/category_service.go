package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/repository"
	"h2o-shop/internal/slug"

	"github.com/google/uuid"
)

// CategoryInput carries the editable fields of a category. Empty Name or
// Brand on update keep the stored value.
type CategoryInput struct {
	Name        string
	DisplayName string
	Brand       string
}

// CategoryService defines the business rules for brand-scoped categories
type CategoryService interface {
	List(ctx context.Context, brand string) ([]*domain.Category, error)
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// List returns every category, or with a brand those of the brand plus the
// shared ones. The brand "all" does not filter.
func (s *categoryService) List(ctx context.Context, brand string) ([]*domain.Category, error) {
	brand = strings.TrimSpace(brand)
	if strings.EqualFold(brand, domain.BrandAll) {
		brand = ""
	}
	return s.repo.List(ctx, brand)
}

func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	brand := domain.NormalizeBrand(input.Brand)
	key := slug.Category(brand, name)

	taken, err := s.repo.SlugExists(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCategorySlugTaken
	}

	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Brand:       brand,
		Slug:        key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrCategorySlugTaken
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// Update only re-checks slug uniqueness when the name or brand changed, and
// then only against other categories.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := category.Name
	if n := strings.TrimSpace(input.Name); n != "" {
		name = n
	}
	brand := category.Brand
	if strings.TrimSpace(input.Brand) != "" {
		brand = domain.NormalizeBrand(input.Brand)
	}

	if name != category.Name || brand != category.Brand {
		key := slug.Category(brand, name)
		if key != category.Slug {
			taken, err := s.repo.SlugExists(ctx, key, &category.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrCategorySlugTaken
			}
		}
		category.Name, category.Brand, category.Slug = name, brand, key
	}

	category.DisplayName = strings.TrimSpace(input.DisplayName)
	category.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrCategorySlugTaken
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
