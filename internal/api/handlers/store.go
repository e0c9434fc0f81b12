package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/models"
)

// Store is the persistence surface the HTTP handlers need. Both
// storage.PostgresStore and storage.MemoryStore satisfy it.
type Store interface {
	CreateCategory(ctx context.Context, name, description string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	AddProductImageKey(ctx context.Context, id uuid.UUID, key string) error

	CreateStyleImage(ctx context.Context, userID uuid.UUID, imageKey string) (*models.StyleImage, error)
	GetStyleImage(ctx context.Context, id uuid.UUID) (*models.StyleImage, error)
	ListStyleImages(ctx context.Context, userID uuid.UUID) ([]models.StyleImage, error)
	ListSegments(ctx context.Context, styleImageID uuid.UUID) ([]models.Segment, error)

	ListRecommendationLogs(ctx context.Context, userID uuid.UUID) ([]models.RecommendationLog, error)
	ListFeedback(ctx context.Context, userID uuid.UUID) ([]models.Feedback, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

// ObjectStore uploads image blobs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// TaskPublisher enqueues pipeline tasks.
type TaskPublisher interface {
	PublishStyleImageTask(ctx context.Context, styleImageID string, task interface{}) error
	PublishProductTask(ctx context.Context, productID string, task interface{}) error
}
