package dto

import "github.com/google/uuid"

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type CreateProductRequest struct {
	SKU             string      `json:"sku" binding:"required"`
	Name            string      `json:"name" binding:"required"`
	Description     string      `json:"description"`
	PriceCents      int64       `json:"price_cents" binding:"required,min=0"`
	DiscountPercent float64     `json:"discount_percent" binding:"min=0,max=100"`
	StockQuantity   int         `json:"stock_quantity" binding:"min=0"`
	CategoryIDs     []uuid.UUID `json:"category_ids" binding:"required,min=1"`
	ImageKeys       []string    `json:"image_keys"`
}

type ProductResponse struct {
	ID              uuid.UUID   `json:"id"`
	SKU             string      `json:"sku"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	PriceCents      int64       `json:"price_cents"`
	DiscountPercent float64     `json:"discount_percent"`
	FinalPriceCents int64       `json:"final_price_cents"`
	StockQuantity   int         `json:"stock_quantity"`
	InStock         bool        `json:"in_stock"`
	CategoryIDs     []uuid.UUID `json:"category_ids,omitempty"`
	ImageKeys       []string    `json:"image_keys,omitempty"`
	HasEmbedding    bool        `json:"has_embedding"`
	CreatedAt       string      `json:"created_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

// SearchRequest is the raw-vector similarity search used for catalog
// debugging. Production traffic reaches search through the pipeline.
type SearchRequest struct {
	Embedding  []float32  `json:"embedding" binding:"required"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	TopN       int        `json:"top_n"`
}

type SearchMatch struct {
	Product  ProductResponse `json:"product"`
	Distance float64         `json:"distance"`
}

type SearchResponse struct {
	Matches []SearchMatch `json:"matches"`
	Total   int           `json:"total"`
}
