package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/stylerec/internal/models"
)

// --- Style images ---

func (s *PostgresStore) CreateStyleImage(ctx context.Context, userID uuid.UUID, imageKey string) (*models.StyleImage, error) {
	si := &models.StyleImage{
		ID:       uuid.New(),
		UserID:   userID,
		ImageKey: imageKey,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO style_images (id, user_id, image_key) VALUES ($1, $2, $3) RETURNING uploaded_at`,
		si.ID, si.UserID, si.ImageKey,
	).Scan(&si.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("create style image: %w", err)
	}
	return si, nil
}

func (s *PostgresStore) GetStyleImage(ctx context.Context, id uuid.UUID) (*models.StyleImage, error) {
	si := &models.StyleImage{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, image_key, uploaded_at FROM style_images WHERE id = $1`, id,
	).Scan(&si.ID, &si.UserID, &si.ImageKey, &si.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get style image: %w", err)
	}
	return si, nil
}

func (s *PostgresStore) ListStyleImages(ctx context.Context, userID uuid.UUID) ([]models.StyleImage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, image_key, uploaded_at FROM style_images WHERE user_id = $1 ORDER BY uploaded_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list style images: %w", err)
	}
	defer rows.Close()

	var images []models.StyleImage
	for rows.Next() {
		var si models.StyleImage
		if err := rows.Scan(&si.ID, &si.UserID, &si.ImageKey, &si.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan style image: %w", err)
		}
		images = append(images, si)
	}
	return images, nil
}

// --- Segments ---

func (s *PostgresStore) CreateSegment(ctx context.Context, styleImageID, categoryID uuid.UUID, imageKey string) (*models.Segment, error) {
	seg := &models.Segment{
		ID:           uuid.New(),
		StyleImageID: styleImageID,
		CategoryID:   categoryID,
		ImageKey:     imageKey,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO segments (id, style_image_id, category_id, image_key) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		seg.ID, seg.StyleImageID, seg.CategoryID, seg.ImageKey,
	).Scan(&seg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create segment: %w", err)
	}
	return seg, nil
}

// AddSegmentEmbedding stores the embedding for a segment. A segment owns
// at most one embedding; a second insert for the same segment fails on the
// unique constraint.
func (s *PostgresStore) AddSegmentEmbedding(ctx context.Context, segmentID uuid.UUID, embedding []float32) (*models.StyleEmbedding, error) {
	e := &models.StyleEmbedding{
		ID:        uuid.New(),
		SegmentID: &segmentID,
		Vector:    embedding,
	}
	vec := pgvector.NewVector(embedding)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO style_embeddings (id, segment_id, vector) VALUES ($1, $2, $3) RETURNING created_at`,
		e.ID, segmentID, vec,
	).Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add segment embedding: %w", err)
	}
	return e, nil
}

// GetSegmentEmbedding returns the stored vector for a segment, or
// models.ErrNotFound if the segment has no embedding yet (or does not
// exist at all).
func (s *PostgresStore) GetSegmentEmbedding(ctx context.Context, segmentID uuid.UUID) ([]float32, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT vector FROM style_embeddings WHERE segment_id = $1`, segmentID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get segment embedding: %w", err)
	}
	return vec.Slice(), nil
}

// ListSegments returns the segments cut from one style image.
func (s *PostgresStore) ListSegments(ctx context.Context, styleImageID uuid.UUID) ([]models.Segment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, style_image_id, category_id, image_key, created_at FROM segments
		 WHERE style_image_id = $1 ORDER BY created_at`, styleImageID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.ID, &seg.StyleImageID, &seg.CategoryID, &seg.ImageKey, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func (s *PostgresStore) GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	seg := &models.Segment{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, style_image_id, category_id, image_key, created_at FROM segments WHERE id = $1`, id,
	).Scan(&seg.ID, &seg.StyleImageID, &seg.CategoryID, &seg.ImageKey, &seg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get segment: %w", err)
	}
	return seg, nil
}
