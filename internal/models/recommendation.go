package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationLog ties a user + style image to the cumulative set of
// recommended products across all segments of that image. At most one log
// exists per (user, style image) pair; recording more products for the
// same pair unions into the existing log.
type RecommendationLog struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	StyleImageID uuid.UUID   `json:"style_image_id" db:"style_image_id"`
	ProductIDs   []uuid.UUID `json:"product_ids" db:"-"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Feedback is a one-shot boolean rating on a RecommendationLog. At most one
// per (user, log); ratings cannot be changed once given.
type Feedback struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LogID     uuid.UUID `json:"log_id" db:"log_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IsGood    bool      `json:"is_good" db:"is_good"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
