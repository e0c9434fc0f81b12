// Package recommend implements the embedding-based retrieval core:
// similarity search over product vectors, recommendation logging and
// feedback aggregation.
package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/observability"
)

// Store is the persistence surface the service needs. Both
// storage.PostgresStore and storage.MemoryStore satisfy it.
type Store interface {
	SearchProducts(ctx context.Context, embedding []float32, categoryID *uuid.UUID, topN int) ([]models.ProductMatch, error)
	GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error)
	GetSegmentEmbedding(ctx context.Context, segmentID uuid.UUID) ([]float32, error)
	AppendRecommendations(ctx context.Context, userID, styleImageID uuid.UUID, productIDs []uuid.UUID) (*models.RecommendationLog, error)
	GetRecommendationLog(ctx context.Context, id uuid.UUID) (*models.RecommendationLog, error)
	CreateFeedback(ctx context.Context, userID, logID uuid.UUID, isGood bool) (*models.Feedback, error)
}

type Service struct {
	store Store
	dim   int // embedding dimensionality D
}

func NewService(store Store, dim int) *Service {
	return &Service{store: store, dim: dim}
}

// Search returns the topN products in the given category closest to the
// query vector by cosine distance, ascending. Fewer than topN results is
// not an error; an empty candidate pool yields an empty result.
func (s *Service) Search(ctx context.Context, embedding []float32, categoryID uuid.UUID, topN int) ([]models.ProductMatch, error) {
	if err := s.validate(embedding, topN); err != nil {
		return nil, err
	}
	observability.SearchesPerformed.Inc()
	return s.store.SearchProducts(ctx, embedding, &categoryID, topN)
}

// SearchAll is the unfiltered variant of Search: the whole embedded
// catalog is the candidate pool. Used for debugging.
func (s *Service) SearchAll(ctx context.Context, embedding []float32, topN int) ([]models.ProductMatch, error) {
	if err := s.validate(embedding, topN); err != nil {
		return nil, err
	}
	observability.SearchesPerformed.Inc()
	return s.store.SearchProducts(ctx, embedding, nil, topN)
}

// SearchBySegment resolves a segment's stored embedding and searches
// within the segment's category. Returns models.ErrNotFound if the segment
// does not exist or has no embedding yet.
func (s *Service) SearchBySegment(ctx context.Context, segmentID uuid.UUID, topN int) ([]models.ProductMatch, error) {
	seg, err := s.store.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	embedding, err := s.store.GetSegmentEmbedding(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, embedding, seg.CategoryID, topN)
}

// Record unions productIDs into the recommendation log for
// (userID, styleImageID), creating it on first write. Safe under
// concurrent calls for sibling segments of the same image.
func (s *Service) Record(ctx context.Context, userID, styleImageID uuid.UUID, productIDs []uuid.UUID) (*models.RecommendationLog, error) {
	return s.store.AppendRecommendations(ctx, userID, styleImageID, productIDs)
}

// Log fetches a recommendation log with its product set.
func (s *Service) Log(ctx context.Context, id uuid.UUID) (*models.RecommendationLog, error) {
	return s.store.GetRecommendationLog(ctx, id)
}

// SubmitFeedback persists a one-shot rating for (userID, logID). A second
// rating for the same pair fails with models.ErrAlreadyRated; ratings are
// never overwritten.
func (s *Service) SubmitFeedback(ctx context.Context, userID, logID uuid.UUID, isGood bool) (*models.Feedback, error) {
	if _, err := s.store.GetRecommendationLog(ctx, logID); err != nil {
		return nil, err
	}
	return s.store.CreateFeedback(ctx, userID, logID, isGood)
}

func (s *Service) validate(embedding []float32, topN int) error {
	if len(embedding) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", models.ErrInvalidDimension, len(embedding), s.dim)
	}
	if topN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", topN)
	}
	return nil
}
