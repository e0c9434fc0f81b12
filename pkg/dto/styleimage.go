package dto

import "github.com/google/uuid"

// UploadResponse acknowledges an accepted style image. Processing is
// asynchronous; results arrive as a notification.
type UploadResponse struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"` // always "queued"
	UploadedAt string    `json:"uploaded_at"`
}

type SegmentResponse struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	ImageKey   string    `json:"image_key"`
	CreatedAt  string    `json:"created_at"`
}

type StyleImageResponse struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	ImageKey   string            `json:"image_key"`
	UploadedAt string            `json:"uploaded_at"`
	Segments   []SegmentResponse `json:"segments,omitempty"`
}

type StyleImageListResponse struct {
	Images []StyleImageResponse `json:"images"`
	Total  int                  `json:"total"`
}
