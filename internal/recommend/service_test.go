package recommend

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/storage"
)

const testDim = 4

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewService(store, testDim), store
}

func addProduct(t *testing.T, store *storage.MemoryStore, name string, categoryID uuid.UUID, embedding []float32) uuid.UUID {
	t.Helper()
	p := &models.Product{
		SKU:        name,
		Name:       name,
		PriceCents: 1000,
		Categories: []uuid.UUID{categoryID},
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	if embedding != nil {
		_, err := store.SetProductEmbedding(context.Background(), p.ID, embedding, false)
		require.NoError(t, err)
	}
	return p.ID
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SearchAll(context.Background(), []float32{1, 0}, 5)
	assert.ErrorIs(t, err, models.ErrInvalidDimension)
}

func TestSearchRejectsNonPositiveTopN(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SearchAll(context.Background(), []float32{1, 0, 0, 0}, 0)
	assert.Error(t, err)
}

func TestSearchOrdersByDistance(t *testing.T) {
	svc, store := newTestService(t)
	cat, _ := store.CreateCategory(context.Background(), "top", "")

	far := addProduct(t, store, "far", cat.ID, []float32{0, 1, 0, 0})
	near := addProduct(t, store, "near", cat.ID, []float32{1, 0.1, 0, 0})
	exact := addProduct(t, store, "exact", cat.ID, []float32{1, 0, 0, 0})

	matches, err := svc.Search(context.Background(), []float32{1, 0, 0, 0}, cat.ID, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, exact, matches[0].Product.ID)
	assert.Equal(t, near, matches[1].Product.ID)
	assert.Equal(t, far, matches[2].Product.ID)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
	assert.LessOrEqual(t, matches[1].Distance, matches[2].Distance)
}

func TestSearchScopesToCategory(t *testing.T) {
	svc, store := newTestService(t)
	tops, _ := store.CreateCategory(context.Background(), "top", "")
	shoes, _ := store.CreateCategory(context.Background(), "footwear", "")

	topID := addProduct(t, store, "shirt", tops.ID, []float32{1, 0, 0, 0})
	addProduct(t, store, "sneaker", shoes.ID, []float32{1, 0, 0, 0})

	matches, err := svc.Search(context.Background(), []float32{1, 0, 0, 0}, tops.ID, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, topID, matches[0].Product.ID)
}

func TestSearchTopNLargerThanPool(t *testing.T) {
	svc, store := newTestService(t)
	cat, _ := store.CreateCategory(context.Background(), "top", "")
	addProduct(t, store, "only", cat.ID, []float32{1, 0, 0, 0})

	matches, err := svc.Search(context.Background(), []float32{1, 0, 0, 0}, cat.ID, 50)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSearchEmptyPool(t *testing.T) {
	svc, store := newTestService(t)
	cat, _ := store.CreateCategory(context.Background(), "top", "")

	// A product without an embedding is not a candidate.
	addProduct(t, store, "unembedded", cat.ID, nil)

	matches, err := svc.Search(context.Background(), []float32{1, 0, 0, 0}, cat.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRecordUnionsAcrossSegments(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()
	imageID := uuid.New()

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	log1, err := svc.Record(context.Background(), userID, imageID, []uuid.UUID{a, b})
	require.NoError(t, err)

	log2, err := svc.Record(context.Background(), userID, imageID, []uuid.UUID{b, c})
	require.NoError(t, err)

	assert.Equal(t, log1.ID, log2.ID)
	assert.ElementsMatch(t, []uuid.UUID{a, b, c}, log2.ProductIDs)
}

func TestRecordConcurrentFirstWrites(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()
	imageID := uuid.New()

	const n = 16
	var wg sync.WaitGroup
	logIDs := make([]uuid.UUID, n)
	productIDs := make([]uuid.UUID, n)

	for i := 0; i < n; i++ {
		productIDs[i] = uuid.New()
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log, err := svc.Record(context.Background(), userID, imageID, []uuid.UUID{productIDs[i]})
			if !assert.NoError(t, err) {
				return
			}
			logIDs[i] = log.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, logIDs[0], logIDs[i], "all writers must converge on one log")
	}

	final, err := svc.Log(context.Background(), logIDs[0])
	require.NoError(t, err)
	assert.ElementsMatch(t, productIDs, final.ProductIDs)
}

func TestSubmitFeedbackOnce(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	log, err := svc.Record(context.Background(), userID, uuid.New(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)

	f, err := svc.SubmitFeedback(context.Background(), userID, log.ID, true)
	require.NoError(t, err)
	assert.True(t, f.IsGood)

	// Second rating, even with the opposite value, is rejected.
	_, err = svc.SubmitFeedback(context.Background(), userID, log.ID, false)
	assert.ErrorIs(t, err, models.ErrAlreadyRated)
}

func TestSubmitFeedbackUnknownLog(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitFeedback(context.Background(), uuid.New(), uuid.New(), true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmitFeedbackPerUser(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	log, err := svc.Record(context.Background(), owner, uuid.New(), nil)
	require.NoError(t, err)

	// Two different users may each rate the same log once.
	_, err = svc.SubmitFeedback(context.Background(), owner, log.ID, true)
	require.NoError(t, err)
	_, err = svc.SubmitFeedback(context.Background(), uuid.New(), log.ID, false)
	require.NoError(t, err)
}

func TestSearchBySegment(t *testing.T) {
	svc, store := newTestService(t)
	cat, _ := store.CreateCategory(context.Background(), "top", "")
	productID := addProduct(t, store, "shirt", cat.ID, []float32{0, 1, 0, 0})

	si, err := store.CreateStyleImage(context.Background(), uuid.New(), "style/x.jpg")
	require.NoError(t, err)
	seg, err := store.CreateSegment(context.Background(), si.ID, cat.ID, "segments/x/top.jpg")
	require.NoError(t, err)

	// Before the embedding exists the lookup fails.
	_, err = svc.SearchBySegment(context.Background(), seg.ID, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.AddSegmentEmbedding(context.Background(), seg.ID, []float32{0, 1, 0, 0})
	require.NoError(t, err)

	matches, err := svc.SearchBySegment(context.Background(), seg.ID, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, productID, matches[0].Product.ID)
}
