package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Product struct {
	ID              uuid.UUID `json:"id" db:"id"`
	SKU             string    `json:"sku" db:"sku"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	PriceCents      int64     `json:"price_cents" db:"price_cents"` // base price in cents
	DiscountPercent float64   `json:"discount_percent" db:"discount_percent"`
	StockQuantity   int       `json:"stock_quantity" db:"stock_quantity"`
	// Embedding is nil until the backfill worker has processed the product.
	Embedding  []float32   `json:"-" db:"embedding"`
	ImageKeys  []string    `json:"image_keys" db:"image_keys"` // MinIO object keys
	Categories []uuid.UUID `json:"category_ids" db:"-"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// FinalPriceCents applies the discount to the base price, rounding down.
func (p *Product) FinalPriceCents() int64 {
	return int64(float64(p.PriceCents) * (1 - p.DiscountPercent/100))
}

// InStock reports whether qty units can be fulfilled.
func (p *Product) InStock(qty int) bool {
	return p.StockQuantity >= qty
}

// ProductMatch is one similarity search result: a product and its cosine
// distance from the query vector (smaller is more similar).
type ProductMatch struct {
	Product  Product `json:"product"`
	Distance float64 `json:"distance"`
}
