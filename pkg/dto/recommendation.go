package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type RecommendationLogResponse struct {
	ID           uuid.UUID   `json:"id"`
	StyleImageID uuid.UUID   `json:"style_image_id"`
	ProductIDs   []uuid.UUID `json:"product_ids,omitempty"`
	CreatedAt    string      `json:"created_at"`
}

type RecommendationListResponse struct {
	Logs  []RecommendationLogResponse `json:"logs"`
	Total int                         `json:"total"`
}

// RecommendationDetailResponse carries the full product cards for one log.
type RecommendationDetailResponse struct {
	ID           uuid.UUID         `json:"id"`
	StyleImageID uuid.UUID         `json:"style_image_id"`
	Products     []ProductResponse `json:"products"`
	CreatedAt    string            `json:"created_at"`
}

// FeedbackRequest uses a pointer so an explicit false passes validation.
type FeedbackRequest struct {
	IsGood *bool `json:"is_good" binding:"required"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	LogID     uuid.UUID `json:"log_id"`
	IsGood    bool      `json:"is_good"`
	CreatedAt string    `json:"created_at"`
}

type NotificationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ReadAt    string          `json:"read_at,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// WSNotification is a WebSocket message for real-time notification delivery.
type WSNotification struct {
	Type    string          `json:"type"` // always "notification"
	UserID  uuid.UUID       `json:"user_id"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
