package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/stylerec/internal/models"
)

// AppendRecommendations unions productIDs into the recommendation log for
// (userID, styleImageID), creating the log if it does not exist yet. The
// get-or-create and the union run in one transaction; the unique key on
// (user_id, style_image_id) makes the operation safe under concurrent
// first-writes from sibling segment workers.
func (s *PostgresStore) AppendRecommendations(ctx context.Context, userID, styleImageID uuid.UUID, productIDs []uuid.UUID) (*models.RecommendationLog, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// ON CONFLICT DO NOTHING makes concurrent first-writes converge on one
	// row; the follow-up SELECT picks up whichever insert won.
	if _, err := tx.Exec(ctx,
		`INSERT INTO recommendation_logs (id, user_id, style_image_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, style_image_id) DO NOTHING`,
		uuid.New(), userID, styleImageID); err != nil {
		return nil, fmt.Errorf("create recommendation log: %w", err)
	}

	log := &models.RecommendationLog{UserID: userID, StyleImageID: styleImageID}
	if err := tx.QueryRow(ctx,
		`SELECT id, created_at FROM recommendation_logs WHERE user_id = $1 AND style_image_id = $2`,
		userID, styleImageID,
	).Scan(&log.ID, &log.CreatedAt); err != nil {
		return nil, fmt.Errorf("get recommendation log: %w", err)
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO recommendation_log_products (log_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			log.ID, pid); err != nil {
			return nil, fmt.Errorf("append recommended product: %w", err)
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT product_id FROM recommendation_log_products WHERE log_id = $1`, log.ID)
	if err != nil {
		return nil, fmt.Errorf("list recommended products: %w", err)
	}
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recommended product: %w", err)
		}
		log.ProductIDs = append(log.ProductIDs, pid)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return log, nil
}

func (s *PostgresStore) GetRecommendationLog(ctx context.Context, id uuid.UUID) (*models.RecommendationLog, error) {
	log := &models.RecommendationLog{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, style_image_id, created_at FROM recommendation_logs WHERE id = $1`, id,
	).Scan(&log.ID, &log.UserID, &log.StyleImageID, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get recommendation log: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT product_id FROM recommendation_log_products WHERE log_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list recommended products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("scan recommended product: %w", err)
		}
		log.ProductIDs = append(log.ProductIDs, pid)
	}
	return log, nil
}

// ListRecommendationLogs returns a user's logs without their product sets
// (the detail endpoint loads those).
func (s *PostgresStore) ListRecommendationLogs(ctx context.Context, userID uuid.UUID) ([]models.RecommendationLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, style_image_id, created_at FROM recommendation_logs
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recommendation logs: %w", err)
	}
	defer rows.Close()

	var logs []models.RecommendationLog
	for rows.Next() {
		var log models.RecommendationLog
		if err := rows.Scan(&log.ID, &log.UserID, &log.StyleImageID, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// --- Feedback ---

// CreateFeedback inserts a rating relying on the UNIQUE(user_id, log_id)
// constraint for race-free duplicate rejection: a second rating for the
// same pair fails with models.ErrAlreadyRated. There is no update path.
func (s *PostgresStore) CreateFeedback(ctx context.Context, userID, logID uuid.UUID, isGood bool) (*models.Feedback, error) {
	f := &models.Feedback{
		ID:     uuid.New(),
		LogID:  logID,
		UserID: userID,
		IsGood: isGood,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO feedback (id, log_id, user_id, is_good) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		f.ID, f.LogID, f.UserID, f.IsGood,
	).Scan(&f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrAlreadyRated
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, userID uuid.UUID) ([]models.Feedback, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, log_id, user_id, is_good, created_at FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.LogID, &f.UserID, &f.IsGood, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, f)
	}
	return items, nil
}

// --- Notifications ---

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Payload == nil {
		n.Payload = []byte("{}")
	}
	return s.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, title, message, payload) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		n.ID, n.UserID, n.Title, n.Message, n.Payload,
	).Scan(&n.CreatedAt)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, message, payload, read_at, created_at FROM notifications
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, nil
}
