package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/auth"
	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/recommend"
	"github.com/your-org/stylerec/pkg/dto"
)

type RecommendationHandler struct {
	db  Store
	svc *recommend.Service
}

func NewRecommendationHandler(db Store, svc *recommend.Service) *RecommendationHandler {
	return &RecommendationHandler{db: db, svc: svc}
}

// List returns the user's recommendation logs, newest first, without their
// product sets.
func (h *RecommendationHandler) List(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	logs, err := h.db.ListRecommendationLogs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.RecommendationLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, dto.RecommendationLogResponse{
			ID:           log.ID,
			StyleImageID: log.StyleImageID,
			CreatedAt:    log.CreatedAt.Format(timeFormat),
		})
	}

	c.JSON(http.StatusOK, dto.RecommendationListResponse{Logs: resp, Total: len(resp)})
}

// Get returns one log with its full product cards.
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}

	log, err := h.svc.Log(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recommendation log not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if log.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation log not found"})
		return
	}

	resp := dto.RecommendationDetailResponse{
		ID:           log.ID,
		StyleImageID: log.StyleImageID,
		Products:     make([]dto.ProductResponse, 0, len(log.ProductIDs)),
		CreatedAt:    log.CreatedAt.Format(timeFormat),
	}
	for _, pid := range log.ProductIDs {
		p, err := h.db.GetProduct(c.Request.Context(), pid)
		if err != nil {
			// Product removed from the catalog after it was recommended.
			continue
		}
		resp.Products = append(resp.Products, productResponse(p))
	}

	c.JSON(http.StatusOK, resp)
}

// Feedback records a one-shot rating on a recommendation log. A repeat
// rating for the same log yields 409.
func (h *RecommendationHandler) Feedback(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := h.svc.SubmitFeedback(c.Request.Context(), userID, logID, *req.IsGood)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "recommendation log not found"})
		case errors.Is(err, models.ErrAlreadyRated):
			c.JSON(http.StatusConflict, gin.H{"error": "feedback already given for this recommendation"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.FeedbackResponse{
		ID:        f.ID,
		LogID:     f.LogID,
		IsGood:    f.IsGood,
		CreatedAt: f.CreatedAt.Format(timeFormat),
	})
}

// ListFeedback returns the user's past ratings.
func (h *RecommendationHandler) ListFeedback(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	items, err := h.db.ListFeedback(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FeedbackResponse, 0, len(items))
	for _, f := range items {
		resp = append(resp, dto.FeedbackResponse{
			ID:        f.ID,
			LogID:     f.LogID,
			IsGood:    f.IsGood,
			CreatedAt: f.CreatedAt.Format(timeFormat),
		})
	}

	c.JSON(http.StatusOK, gin.H{"feedback": resp, "total": len(resp)})
}
