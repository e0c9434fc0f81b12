package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/stylerec/internal/models"
)

func TestDetectCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"categories":["top","footwear"]}`))
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 5*time.Second)
	categories, err := c.DetectCategories(context.Background(), []byte("photo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "footwear"}, categories)
}

func TestDetectCategoriesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 5*time.Second)
	_, err := c.DetectCategories(context.Background(), []byte("photo"))
	assert.ErrorIs(t, err, models.ErrExternalService)
}

func TestDetectCategoriesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 20*time.Millisecond)
	_, err := c.DetectCategories(context.Background(), []byte("photo"))
	assert.ErrorIs(t, err, models.ErrExternalService)
}

func TestSegmentObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "top", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte("crop-bytes"))
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 5*time.Second)
	crop, err := c.SegmentObject(context.Background(), []byte("photo"), "top")
	require.NoError(t, err)
	assert.Equal(t, []byte("crop-bytes"), crop)
}

func TestSegmentObjectNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 5*time.Second)
	crop, err := c.SegmentObject(context.Background(), []byte("photo"), "top")
	require.NoError(t, err)
	assert.Nil(t, crop, "204 means the segmenter found nothing, not an error")
}

func TestSegmentObjectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, srv.URL, 5*time.Second)
	_, err := c.SegmentObject(context.Background(), []byte("photo"), "top")
	assert.ErrorIs(t, err, models.ErrExternalService)
}
