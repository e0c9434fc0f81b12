package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/stylerec/internal/models"
)

// --- Categories ---

func (s *PostgresStore) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	c := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3) RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Description,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// GetCategoryByName resolves a category by case-insensitive exact name
// match. Detector output is matched through this; no fuzzy matching.
func (s *PostgresStore) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	c := &models.Category{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

// --- Products ---

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO products (id, sku, name, description, price_cents, discount_percent, stock_quantity, image_keys)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.Description, p.PriceCents, p.DiscountPercent, p.StockQuantity, p.ImageKeys,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	for _, catID := range p.Categories {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			p.ID, catID); err != nil {
			return fmt.Errorf("link product category: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p := &models.Product{}
	var vec *pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, sku, name, description, price_cents, discount_percent, stock_quantity, embedding, image_keys, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.DiscountPercent,
		&p.StockQuantity, &vec, &p.ImageKeys, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if vec != nil {
		p.Embedding = vec.Slice()
	}

	rows, err := s.pool.Query(ctx,
		`SELECT category_id FROM product_categories WHERE product_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get product categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var catID uuid.UUID
		if err := rows.Scan(&catID); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		p.Categories = append(p.Categories, catID)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, sku, name, description, price_cents, discount_percent, stock_quantity, image_keys, created_at, updated_at
		 FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.DiscountPercent,
			&p.StockQuantity, &p.ImageKeys, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// AddProductImageKey appends an object key to the product's image list.
func (s *PostgresStore) AddProductImageKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET image_keys = array_append(image_keys, $1), updated_at = now() WHERE id = $2`,
		key, id)
	if err != nil {
		return fmt.Errorf("add product image key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetProductEmbedding writes the product's embedding as a single-column
// update, so concurrent searches never observe a half-written vector.
// Unless force is set, a product that already has an embedding is left
// untouched and false is returned.
func (s *PostgresStore) SetProductEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, force bool) (bool, error) {
	vec := pgvector.NewVector(embedding)

	query := `UPDATE products SET embedding = $1, updated_at = now() WHERE id = $2 AND embedding IS NULL`
	if force {
		query = `UPDATE products SET embedding = $1, updated_at = now() WHERE id = $2`
	}

	tag, err := s.pool.Exec(ctx, query, vec, id)
	if err != nil {
		return false, fmt.Errorf("set product embedding: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListProductsMissingEmbedding returns IDs of products the backfill still
// has to process.
func (s *PostgresStore) ListProductsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM products WHERE embedding IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list products missing embedding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SearchProducts returns the topN products closest to the query vector by
// cosine distance, ascending. Only products with a stored embedding are
// candidates; categoryID, when non-nil, restricts candidates to that
// category. An empty candidate pool yields an empty slice, not an error.
func (s *PostgresStore) SearchProducts(ctx context.Context, embedding []float32, categoryID *uuid.UUID, topN int) ([]models.ProductMatch, error) {
	vec := pgvector.NewVector(embedding)

	var query string
	var args []interface{}

	if categoryID != nil {
		query = `
			SELECT p.id, p.sku, p.name, p.description, p.price_cents, p.discount_percent, p.stock_quantity,
			       p.image_keys, p.created_at, p.updated_at, p.embedding <=> $1 AS distance
			FROM products p
			JOIN product_categories pc ON pc.product_id = p.id
			WHERE p.embedding IS NOT NULL
			  AND pc.category_id = $2
			ORDER BY p.embedding <=> $1
			LIMIT $3`
		args = []interface{}{vec, *categoryID, topN}
	} else {
		query = `
			SELECT p.id, p.sku, p.name, p.description, p.price_cents, p.discount_percent, p.stock_quantity,
			       p.image_keys, p.created_at, p.updated_at, p.embedding <=> $1 AS distance
			FROM products p
			WHERE p.embedding IS NOT NULL
			ORDER BY p.embedding <=> $1
			LIMIT $2`
		args = []interface{}{vec, topN}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var matches []models.ProductMatch
	for rows.Next() {
		var m models.ProductMatch
		if err := rows.Scan(&m.Product.ID, &m.Product.SKU, &m.Product.Name, &m.Product.Description,
			&m.Product.PriceCents, &m.Product.DiscountPercent, &m.Product.StockQuantity,
			&m.Product.ImageKeys, &m.Product.CreatedAt, &m.Product.UpdatedAt, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan product match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}
