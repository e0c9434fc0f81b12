package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/stylerec/internal/models"
)

func TestMemorySearchStableTieBreak(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "top", "")
	require.NoError(t, err)

	// Three products with identical embeddings: equal distances must come
	// back in insertion order.
	var want []uuid.UUID
	for _, name := range []string{"first", "second", "third"} {
		p := &models.Product{SKU: name, Name: name, Categories: []uuid.UUID{cat.ID}}
		require.NoError(t, store.CreateProduct(ctx, p))
		_, err := store.SetProductEmbedding(ctx, p.ID, []float32{1, 0, 0}, false)
		require.NoError(t, err)
		want = append(want, p.ID)
	}

	for i := 0; i < 5; i++ {
		matches, err := store.SearchProducts(ctx, []float32{1, 0, 0}, &cat.ID, 10)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		for j, m := range matches {
			assert.Equal(t, want[j], m.Product.ID)
		}
	}
}

func TestMemorySearchZeroNormVector(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := &models.Product{SKU: "p", Name: "p"}
	require.NoError(t, store.CreateProduct(ctx, p))
	_, err := store.SetProductEmbedding(ctx, p.ID, []float32{0, 0, 0}, false)
	require.NoError(t, err)

	matches, err := store.SearchProducts(ctx, []float32{1, 0, 0}, nil, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Distance)
}

func TestMemorySetProductEmbeddingIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := &models.Product{SKU: "p", Name: "p"}
	require.NoError(t, store.CreateProduct(ctx, p))

	updated, err := store.SetProductEmbedding(ctx, p.ID, []float32{1, 0}, false)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second write without force is a no-op.
	updated, err = store.SetProductEmbedding(ctx, p.ID, []float32{0, 1}, false)
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Embedding)

	// Force overwrites.
	updated, err = store.SetProductEmbedding(ctx, p.ID, []float32{0, 1}, true)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err = store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.Embedding)
}

func TestMemoryGetCategoryByNameCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Footwear", "")
	require.NoError(t, err)

	got, err := store.GetCategoryByName(ctx, "footwear")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = store.GetCategoryByName(ctx, "hat")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryAppendRecommendationsDeduplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	userID, imageID := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()

	_, err := store.AppendRecommendations(ctx, userID, imageID, []uuid.UUID{a, a, b})
	require.NoError(t, err)
	log, err := store.AppendRecommendations(ctx, userID, imageID, []uuid.UUID{a})
	require.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{a, b}, log.ProductIDs)
}

func TestMemoryLogsArePerUserAndImage(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	userA, userB := uuid.New(), uuid.New()
	image := uuid.New()

	logA, err := store.AppendRecommendations(ctx, userA, image, nil)
	require.NoError(t, err)
	logB, err := store.AppendRecommendations(ctx, userB, image, nil)
	require.NoError(t, err)

	assert.NotEqual(t, logA.ID, logB.ID, "same image, different users, separate logs")

	logsA, err := store.ListRecommendationLogs(ctx, userA)
	require.NoError(t, err)
	require.Len(t, logsA, 1)
	assert.Equal(t, logA.ID, logsA[0].ID)
}

func TestMemoryListNotificationsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	userID := uuid.New()
	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, store.CreateNotification(ctx, &models.Notification{
			UserID: userID,
			Title:  title,
		}))
	}
	require.NoError(t, store.CreateNotification(ctx, &models.Notification{
		UserID: uuid.New(),
		Title:  "other user",
	}))

	items, err := store.ListNotifications(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "three", items[0].Title)
	assert.Equal(t, "two", items[1].Title)
}
