package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/recommend"
	"github.com/your-org/stylerec/internal/storage"
)

const testDim = 4

// --- fakes ---

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) GetObject(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

type fakeDetector struct {
	categories []string
	err        error
}

func (f *fakeDetector) DetectCategories(ctx context.Context, image []byte) ([]string, error) {
	return f.categories, f.err
}

type fakeSegmenter struct {
	crops map[string][]byte
	errs  map[string]error
}

func (f *fakeSegmenter) SegmentObject(ctx context.Context, image []byte, category string) ([]byte, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.crops[category], nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	vecs  map[string][]float32 // keyed by image content
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if vec, ok := f.vecs[string(image)]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) Dim() int { return testDim }

type fakeNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, payload json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, title)
}

// --- fixtures ---

type fixture struct {
	store    *storage.MemoryStore
	objects  *fakeObjects
	detector *fakeDetector
	segment  *fakeSegmenter
	embedder *fakeEmbedder
	notifier *fakeNotifier
	pipe     *Pipeline
}

func newFixture(t *testing.T, categories []string) *fixture {
	t.Helper()
	f := &fixture{
		store:    storage.NewMemoryStore(),
		objects:  newFakeObjects(),
		detector: &fakeDetector{categories: categories},
		segment:  &fakeSegmenter{crops: map[string][]byte{}, errs: map[string]error{}},
		embedder: &fakeEmbedder{vecs: map[string][]float32{}},
		notifier: &fakeNotifier{},
	}
	recommender := recommend.NewService(f.store, testDim)
	f.pipe = New(f.store, f.objects, f.detector, f.segment, f.embedder, recommender, f.notifier, 10)
	return f
}

func (f *fixture) addCategoryWithProduct(t *testing.T, name string, embedding []float32) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	cat, err := f.store.CreateCategory(ctx, name, "")
	require.NoError(t, err)
	p := &models.Product{SKU: name + "-1", Name: name + " product", Categories: []uuid.UUID{cat.ID}}
	require.NoError(t, f.store.CreateProduct(ctx, p))
	_, err = f.store.SetProductEmbedding(ctx, p.ID, embedding, false)
	require.NoError(t, err)
	return cat.ID, p.ID
}

func (f *fixture) uploadStyleImage(t *testing.T, userID uuid.UUID) models.StyleImageTask {
	t.Helper()
	ctx := context.Background()
	si, err := f.store.CreateStyleImage(ctx, userID, "style/test.jpg")
	require.NoError(t, err)
	require.NoError(t, f.objects.PutObject(ctx, "style/test.jpg", []byte("photo"), "image/jpeg"))
	return models.StyleImageTask{
		StyleImageID: si.ID,
		UserID:       userID,
		ImageKey:     "style/test.jpg",
		UploadedAt:   si.UploadedAt,
	}
}

// --- tests ---

func TestProcessStyleImageDegradesPerCategory(t *testing.T) {
	f := newFixture(t, []string{"top", "footwear"})
	ctx := context.Background()

	f.addCategoryWithProduct(t, "top", []float32{0, 1, 0, 0})
	f.addCategoryWithProduct(t, "footwear", []float32{0, 0, 1, 0})

	// Segmenter succeeds for the top and times out for footwear.
	f.segment.crops["top"] = []byte("top-crop")
	f.segment.errs["footwear"] = fmt.Errorf("%w: segment timeout", models.ErrExternalService)
	f.embedder.vecs["top-crop"] = []float32{0, 1, 0, 0}

	userID := uuid.New()
	task := f.uploadStyleImage(t, userID)

	require.NoError(t, f.pipe.ProcessStyleImage(ctx, task))

	segments, err := f.store.ListSegments(ctx, task.StyleImageID)
	require.NoError(t, err)
	assert.Len(t, segments, 1, "failed category must not produce a segment")

	logs, err := f.store.ListRecommendationLogs(ctx, userID)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	log, err := f.store.GetRecommendationLog(ctx, logs[0].ID)
	require.NoError(t, err)
	assert.Len(t, log.ProductIDs, 1, "only the surviving category's products recorded")

	assert.Len(t, f.notifier.notes, 1, "exactly one notification after all categories settle")
}

func TestProcessStyleImageNothingDetected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	userID := uuid.New()
	task := f.uploadStyleImage(t, userID)

	require.NoError(t, f.pipe.ProcessStyleImage(ctx, task))

	segments, err := f.store.ListSegments(ctx, task.StyleImageID)
	require.NoError(t, err)
	assert.Empty(t, segments)

	logs, err := f.store.ListRecommendationLogs(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.Len(t, f.notifier.notes, 1, "user is told even when nothing was found")
}

func TestProcessStyleImageUnknownCategory(t *testing.T) {
	f := newFixture(t, []string{"hat"})
	ctx := context.Background()

	// No "hat" category in the catalog.
	f.segment.crops["hat"] = []byte("hat-crop")

	userID := uuid.New()
	task := f.uploadStyleImage(t, userID)

	require.NoError(t, f.pipe.ProcessStyleImage(ctx, task))

	segments, err := f.store.ListSegments(ctx, task.StyleImageID)
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Len(t, f.notifier.notes, 1)
}

func TestProcessStyleImageSegmenterFindsNothing(t *testing.T) {
	f := newFixture(t, []string{"top"})
	ctx := context.Background()

	f.addCategoryWithProduct(t, "top", []float32{0, 1, 0, 0})
	// No crop registered for "top": segmenter returns nil, nil.

	userID := uuid.New()
	task := f.uploadStyleImage(t, userID)

	require.NoError(t, f.pipe.ProcessStyleImage(ctx, task))

	segments, err := f.store.ListSegments(ctx, task.StyleImageID)
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Len(t, f.notifier.notes, 1)
}

func TestProcessStyleImageDetectorFailureRetries(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.err = fmt.Errorf("%w: detector down", models.ErrExternalService)
	ctx := context.Background()

	task := f.uploadStyleImage(t, uuid.New())

	err := f.pipe.ProcessStyleImage(ctx, task)
	require.Error(t, err, "detection failure fails the whole task so the queue redelivers it")
	assert.Empty(t, f.notifier.notes, "no notification for a task that will be retried")
}

func TestProcessProductBackfill(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p := &models.Product{SKU: "sku-1", Name: "shirt", ImageKeys: []string{"products/x/0.jpg"}}
	require.NoError(t, f.store.CreateProduct(ctx, p))
	require.NoError(t, f.objects.PutObject(ctx, "products/x/0.jpg", []byte("product-photo"), "image/jpeg"))
	f.embedder.vecs["product-photo"] = []float32{0, 0, 0, 1}

	require.NoError(t, f.pipe.ProcessProductBackfill(ctx, models.ProductBackfillTask{ProductID: p.ID}))

	got, err := f.store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1}, got.Embedding)
	assert.Equal(t, 1, f.embedder.calls)

	// Re-running without force is a no-op.
	require.NoError(t, f.pipe.ProcessProductBackfill(ctx, models.ProductBackfillTask{ProductID: p.ID}))
	assert.Equal(t, 1, f.embedder.calls, "already embedded product is skipped")

	// Force recomputes.
	f.embedder.vecs["product-photo"] = []float32{0, 0, 1, 0}
	require.NoError(t, f.pipe.ProcessProductBackfill(ctx, models.ProductBackfillTask{ProductID: p.ID, Force: true}))
	assert.Equal(t, 2, f.embedder.calls)

	got, err = f.store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1, 0}, got.Embedding)
}

func TestProcessProductBackfillMissingProduct(t *testing.T) {
	f := newFixture(t, nil)

	// A task for a deleted product is dropped, not retried.
	err := f.pipe.ProcessProductBackfill(context.Background(), models.ProductBackfillTask{ProductID: uuid.New()})
	assert.NoError(t, err)
}
