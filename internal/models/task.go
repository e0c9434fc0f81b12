package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StyleImageTask is the message published to NATS when a style image is
// uploaded. One task per upload; the worker runs the full pipeline for it.
type StyleImageTask struct {
	StyleImageID uuid.UUID `json:"style_image_id"`
	UserID       uuid.UUID `json:"user_id"`
	ImageKey     string    `json:"image_key"` // MinIO object key of the original photo
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ProductBackfillTask asks the worker to ensure a product has an embedding.
// Published on product creation and by the backfill command; the operation
// is idempotent unless Force is set.
type ProductBackfillTask struct {
	ProductID uuid.UUID `json:"product_id"`
	Force     bool      `json:"force,omitempty"`
}

// NotificationMessage is published to the NOTIFICATIONS stream by the
// worker and consumed by the API service, which persists it and pushes it
// to connected WebSocket clients.
type NotificationMessage struct {
	UserID  uuid.UUID       `json:"user_id"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
