package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/recommend"
	"github.com/your-org/stylerec/internal/storage"
	"github.com/your-org/stylerec/pkg/dto"
)

const timeFormat = "2006-01-02T15:04:05Z"

// CatalogHandler manages categories and products. Creating a product also
// enqueues its embedding backfill task.
type CatalogHandler struct {
	db       Store
	objects  ObjectStore
	producer TaskPublisher
	svc      *recommend.Service
}

func NewCatalogHandler(db Store, objects ObjectStore, producer TaskPublisher, svc *recommend.Service) *CatalogHandler {
	return &CatalogHandler{db: db, objects: objects, producer: producer, svc: svc}
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.db.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.CategoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Description: cat.Description,
		CreatedAt:   cat.CreatedAt.Format(timeFormat),
	})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.db.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, dto.CategoryResponse{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
			CreatedAt:   cat.CreatedAt.Format(timeFormat),
		})
	}

	c.JSON(http.StatusOK, gin.H{"categories": resp, "total": len(resp)})
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		DiscountPercent: req.DiscountPercent,
		StockQuantity:   req.StockQuantity,
		Categories:      req.CategoryIDs,
		ImageKeys:       req.ImageKeys,
	}
	if err := h.db.CreateProduct(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Enqueue embedding backfill. A publish failure is not fatal: the
	// backfill command picks up products with no embedding later.
	task := models.ProductBackfillTask{ProductID: p.ID}
	if err := h.producer.PublishProductTask(c.Request.Context(), p.ID.String(), task); err != nil {
		slog.Error("enqueue product backfill", "product_id", p.ID, "error", err)
	}

	c.JSON(http.StatusCreated, productResponse(p))
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	p, err := h.db.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, productResponse(p))
}

// AddImage attaches a multipart product photo. The first image also
// triggers the embedding backfill, since the pipeline embeds image_keys[0].
func (h *CatalogHandler) AddImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	p, err := h.db.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}
	if len(imageData) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	key := storage.ProductImageKey(id, len(p.ImageKeys))
	if err := h.objects.PutObject(c.Request.Context(), key, imageData, "image/jpeg"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}
	if err := h.db.AddProductImageKey(c.Request.Context(), id, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	p.ImageKeys = append(p.ImageKeys, key)

	if len(p.ImageKeys) == 1 {
		task := models.ProductBackfillTask{ProductID: p.ID}
		if err := h.producer.PublishProductTask(c.Request.Context(), p.ID.String(), task); err != nil {
			slog.Error("enqueue product backfill", "product_id", p.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, productResponse(p))
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := h.db.ListProducts(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, productResponse(&products[i]))
	}

	c.JSON(http.StatusOK, dto.ProductListResponse{Products: resp, Total: len(resp)})
}

// Search runs a raw-vector similarity search against the catalog.
func (h *CatalogHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopN <= 0 {
		req.TopN = 10
	}

	var matches []models.ProductMatch
	var err error
	if req.CategoryID != nil {
		matches, err = h.svc.Search(c.Request.Context(), req.Embedding, *req.CategoryID, req.TopN)
	} else {
		matches, err = h.svc.SearchAll(c.Request.Context(), req.Embedding, req.TopN)
	}
	if err != nil {
		if errors.Is(err, models.ErrInvalidDimension) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.SearchMatch, 0, len(matches))
	for i := range matches {
		resp = append(resp, dto.SearchMatch{
			Product:  productResponse(&matches[i].Product),
			Distance: matches[i].Distance,
		})
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Matches: resp, Total: len(resp)})
}

func productResponse(p *models.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		DiscountPercent: p.DiscountPercent,
		FinalPriceCents: p.FinalPriceCents(),
		StockQuantity:   p.StockQuantity,
		InStock:         p.InStock(1),
		CategoryIDs:     p.Categories,
		ImageKeys:       p.ImageKeys,
		HasEmbedding:    len(p.Embedding) > 0,
		CreatedAt:       p.CreatedAt.Format(timeFormat),
	}
}
