package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"h2o-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this slug already exists")
)

// ProductFilter narrows a product listing. Empty fields do not filter.
type ProductFilter struct {
	Brand        string
	CategorySlug string
}

// ProductRepository defines the interface for product data access. Products
// are always read and written together with their variants.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.slug, p.volume, p.brand, p.category_id,
	       p.images, p.created_at, p.updated_at,
	       c.name, c.display_name, c.brand, c.slug
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

const variantColumns = `id, product_id, name, price, stock, sku, image, created_at, updated_at`

// Create inserts the product and its variants in one transaction.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	query := `
		INSERT INTO products (id, name, description, price, slug, volume, brand, category_id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Slug,
		product.Volume,
		product.Brand,
		nullUUID(product.CategoryID),
		product.Images,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.ProductID = product.ID
		v.CreatedAt, v.UpdatedAt = product.CreatedAt, product.UpdatedAt
		if err := insertVariant(ctx, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}
	return nil
}

// Update rewrites the product row and reconciles its variants by id:
// submitted variants whose id already belongs to the product are updated,
// the rest are inserted with a fresh id, and stored variants that were not
// submitted are deleted.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, slug = $5, volume = $6, brand = $7,
		    category_id = $8, images = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Slug,
		product.Volume,
		product.Brand,
		nullUUID(product.CategoryID),
		product.Images,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := syncVariants(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}
	return nil
}

func syncVariants(ctx context.Context, tx *sql.Tx, product *domain.Product) error {
	stored, err := variantIDs(ctx, tx, product.ID)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(product.Variants))
	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		v.UpdatedAt = product.UpdatedAt

		if _, ok := stored[v.ID]; ok && v.ID != uuid.Nil {
			if err := updateVariant(ctx, tx, v); err != nil {
				return err
			}
		} else {
			v.ID = uuid.New()
			v.CreatedAt = product.UpdatedAt
			if err := insertVariant(ctx, tx, v); err != nil {
				return err
			}
		}
		kept = append(kept, v.ID.String())
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM variants WHERE product_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		product.ID, kept,
	)
	if err != nil {
		return fmt.Errorf("failed to delete removed variants: %w", err)
	}
	return nil
}

func variantIDs(ctx context.Context, tx *sql.Tx, productID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM variants WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variant ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan variant id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func insertVariant(ctx context.Context, tx *sql.Tx, v *domain.Variant) error {
	query := `
		INSERT INTO variants (id, product_id, name, price, stock, sku, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(ctx, query,
		v.ID,
		v.ProductID,
		v.Name,
		v.Price,
		v.Stock,
		nullString(v.SKU),
		nullString(v.Image),
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create variant: %w", err)
	}
	return nil
}

func updateVariant(ctx context.Context, tx *sql.Tx, v *domain.Variant) error {
	query := `
		UPDATE variants
		SET name = $2, price = $3, stock = $4, sku = $5, image = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query,
		v.ID,
		v.Name,
		v.Price,
		v.Stock,
		nullString(v.SKU),
		nullString(v.Image),
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}
	return nil
}

// Delete removes a product; its variants go with it.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	if err := r.attachVariants(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

// List returns products newest first, filtered by brand and category slug.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Brand != "" {
		args = append(args, filter.Brand)
		conditions = append(conditions, fmt.Sprintf("LOWER(p.brand) = LOWER($%d)", len(args)))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", len(args)))
	}

	query := productSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product    domain.Product
		categoryID uuid.NullUUID
		catName    sql.NullString
		catDisplay sql.NullString
		catBrand   sql.NullString
		catSlug    sql.NullString
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Slug,
		&product.Volume,
		&product.Brand,
		&categoryID,
		&product.Images,
		&product.CreatedAt,
		&product.UpdatedAt,
		&catName,
		&catDisplay,
		&catBrand,
		&catSlug,
	)
	if err != nil {
		return nil, err
	}

	if product.Images == nil {
		product.Images = domain.Gallery{}
	}
	product.Variants = []domain.Variant{}

	if categoryID.Valid {
		id := categoryID.UUID
		product.CategoryID = &id
		product.Category = &domain.Category{
			ID:          id,
			Name:        catName.String,
			DisplayName: catDisplay.String,
			Brand:       catBrand.String,
			Slug:        catSlug.String,
		}
	}

	return &product, nil
}

func (r *productRepository) attachVariants(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID.String())
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE product_id = ANY($1::uuid[]) ORDER BY price ASC, created_at ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v     domain.Variant
			sku   sql.NullString
			image sql.NullString
		)
		err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &sku, &image, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		v.SKU, v.Image = sku.String, image.String

		if p, ok := byID[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating variants: %w", err)
	}
	return nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
