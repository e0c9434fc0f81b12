package storage

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/models"
)

// MemoryStore is an in-memory implementation of the store operations the
// recommendation core and pipeline depend on. It backs the test suites and
// lets the services run without Postgres. Search is a brute-force cosine
// scan over insertion-ordered products; the sort is stable, so equal
// distances keep insertion order.
type MemoryStore struct {
	mu sync.Mutex

	categories []models.Category
	products   []models.Product

	styleImages map[uuid.UUID]models.StyleImage
	segments    map[uuid.UUID]models.Segment
	segmentVecs map[uuid.UUID][]float32

	logs     map[logKey]*models.RecommendationLog
	logsByID map[uuid.UUID]*models.RecommendationLog
	feedback map[feedbackKey]models.Feedback

	notifications []models.Notification
}

type logKey struct {
	userID       uuid.UUID
	styleImageID uuid.UUID
}

type feedbackKey struct {
	userID uuid.UUID
	logID  uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		styleImages: make(map[uuid.UUID]models.StyleImage),
		segments:    make(map[uuid.UUID]models.Segment),
		segmentVecs: make(map[uuid.UUID][]float32),
		logs:        make(map[logKey]*models.RecommendationLog),
		logsByID:    make(map[uuid.UUID]*models.RecommendationLog),
		feedback:    make(map[feedbackKey]models.Feedback),
	}
}

// --- Categories ---

func (s *MemoryStore) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			cc := c
			return &cc, nil
		}
	}
	return nil, models.ErrNotFound
}

// --- Products ---

func (s *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products = append(s.products, *p)
	return nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.ID == id {
			pp := p
			return &pp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStore) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if offset >= len(s.products) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.products) {
		end = len(s.products)
	}
	out := make([]models.Product, end-offset)
	copy(out, s.products[offset:end])
	return out, nil
}

func (s *MemoryStore) AddProductImageKey(ctx context.Context, id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].ImageKeys = append(s.products[i].ImageKeys, key)
			s.products[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MemoryStore) SetProductEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID != id {
			continue
		}
		if s.products[i].Embedding != nil && !force {
			return false, nil
		}
		vec := make([]float32, len(embedding))
		copy(vec, embedding)
		s.products[i].Embedding = vec
		s.products[i].UpdatedAt = time.Now()
		return true, nil
	}
	return false, models.ErrNotFound
}

func (s *MemoryStore) ListProductsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for _, p := range s.products {
		if p.Embedding == nil {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *MemoryStore) SearchProducts(ctx context.Context, embedding []float32, categoryID *uuid.UUID, topN int) ([]models.ProductMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.ProductMatch
	for _, p := range s.products {
		if p.Embedding == nil {
			continue
		}
		if categoryID != nil && !containsID(p.Categories, *categoryID) {
			continue
		}
		pp := p
		matches = append(matches, models.ProductMatch{
			Product:  pp,
			Distance: cosineDistance(embedding, p.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// --- Style images and segments ---

func (s *MemoryStore) CreateStyleImage(ctx context.Context, userID uuid.UUID, imageKey string) (*models.StyleImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := models.StyleImage{
		ID:         uuid.New(),
		UserID:     userID,
		ImageKey:   imageKey,
		UploadedAt: time.Now(),
	}
	s.styleImages[si.ID] = si
	return &si, nil
}

func (s *MemoryStore) GetStyleImage(ctx context.Context, id uuid.UUID) (*models.StyleImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si, ok := s.styleImages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &si, nil
}

func (s *MemoryStore) ListStyleImages(ctx context.Context, userID uuid.UUID) ([]models.StyleImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.StyleImage
	for _, si := range s.styleImages {
		if si.UserID == userID {
			out = append(out, si)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (s *MemoryStore) CreateSegment(ctx context.Context, styleImageID, categoryID uuid.UUID, imageKey string) (*models.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg := models.Segment{
		ID:           uuid.New(),
		StyleImageID: styleImageID,
		CategoryID:   categoryID,
		ImageKey:     imageKey,
		CreatedAt:    time.Now(),
	}
	s.segments[seg.ID] = seg
	return &seg, nil
}

func (s *MemoryStore) GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &seg, nil
}

func (s *MemoryStore) ListSegments(ctx context.Context, styleImageID uuid.UUID) ([]models.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Segment
	for _, seg := range s.segments {
		if seg.StyleImageID == styleImageID {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AddSegmentEmbedding(ctx context.Context, segmentID uuid.UUID, embedding []float32) (*models.StyleEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	s.segmentVecs[segmentID] = vec

	return &models.StyleEmbedding{
		ID:        uuid.New(),
		SegmentID: &segmentID,
		Vector:    vec,
		CreatedAt: time.Now(),
	}, nil
}

func (s *MemoryStore) GetSegmentEmbedding(ctx context.Context, segmentID uuid.UUID) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, ok := s.segmentVecs[segmentID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// --- Recommendation logs ---

func (s *MemoryStore) AppendRecommendations(ctx context.Context, userID, styleImageID uuid.UUID, productIDs []uuid.UUID) (*models.RecommendationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{userID: userID, styleImageID: styleImageID}
	log, ok := s.logs[key]
	if !ok {
		log = &models.RecommendationLog{
			ID:           uuid.New(),
			UserID:       userID,
			StyleImageID: styleImageID,
			CreatedAt:    time.Now(),
		}
		s.logs[key] = log
		s.logsByID[log.ID] = log
	}

	for _, pid := range productIDs {
		if !containsID(log.ProductIDs, pid) {
			log.ProductIDs = append(log.ProductIDs, pid)
		}
	}

	out := *log
	out.ProductIDs = append([]uuid.UUID(nil), log.ProductIDs...)
	return &out, nil
}

func (s *MemoryStore) GetRecommendationLog(ctx context.Context, id uuid.UUID) (*models.RecommendationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logsByID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *log
	out.ProductIDs = append([]uuid.UUID(nil), log.ProductIDs...)
	return &out, nil
}

func (s *MemoryStore) ListRecommendationLogs(ctx context.Context, userID uuid.UUID) ([]models.RecommendationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.RecommendationLog
	for _, log := range s.logsByID {
		if log.UserID == userID {
			out = append(out, *log)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Feedback ---

func (s *MemoryStore) CreateFeedback(ctx context.Context, userID, logID uuid.UUID, isGood bool) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := feedbackKey{userID: userID, logID: logID}
	if _, exists := s.feedback[key]; exists {
		return nil, models.ErrAlreadyRated
	}

	f := models.Feedback{
		ID:        uuid.New(),
		LogID:     logID,
		UserID:    userID,
		IsGood:    isGood,
		CreatedAt: time.Now(),
	}
	s.feedback[key] = f
	return &f, nil
}

func (s *MemoryStore) ListFeedback(ctx context.Context, userID uuid.UUID) ([]models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Feedback
	for key, f := range s.feedback {
		if key.userID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Notifications ---

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

// --- helpers ---

// cosineDistance is 1 - cosine similarity; smaller means more similar.
// A zero-norm vector yields the maximum distance 1.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
