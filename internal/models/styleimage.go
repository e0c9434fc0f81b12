package models

import (
	"time"

	"github.com/google/uuid"
)

// StyleImage is a user-submitted photo. Immutable after upload except for
// its segment collection, which the pipeline fills in.
type StyleImage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ImageKey   string    `json:"image_key" db:"image_key"` // MinIO object key
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Segment is a cropped region of a StyleImage tagged with exactly one
// catalog category. Never mutated after creation.
type Segment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	StyleImageID uuid.UUID `json:"style_image_id" db:"style_image_id"`
	CategoryID   uuid.UUID `json:"category_id" db:"category_id"`
	ImageKey     string    `json:"image_key" db:"image_key"` // MinIO key of the crop
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// StyleEmbedding attaches a vector to exactly one of {segment, product}.
// The two source columns are mutually exclusive: not both set, not both null.
type StyleEmbedding struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	SegmentID *uuid.UUID `json:"segment_id,omitempty" db:"segment_id"`
	ProductID *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	Vector    []float32  `json:"-" db:"vector"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
