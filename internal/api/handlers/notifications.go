package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/stylerec/internal/auth"
	"github.com/your-org/stylerec/pkg/dto"
)

type NotificationHandler struct {
	db Store
}

func NewNotificationHandler(db Store) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the user's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.db.ListNotifications(c.Request.Context(), userID, q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		r := dto.NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Payload:   n.Payload,
			CreatedAt: n.CreatedAt.Format(timeFormat),
		}
		if n.ReadAt != nil {
			r.ReadAt = n.ReadAt.Format(timeFormat)
		}
		resp = append(resp, r)
	}

	c.JSON(http.StatusOK, gin.H{"notifications": resp, "total": len(resp)})
}
