package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/your-org/stylerec/internal/models"
)

// ModelClient talks to the external model server hosting the detector and
// segmenter networks. Every call carries a per-request timeout; a failed or
// timed-out call surfaces as models.ErrExternalService so the pipeline can
// degrade to a per-category skip.
type ModelClient struct {
	detectorURL  string
	segmenterURL string
	timeout      time.Duration
	client       *http.Client
}

func NewModelClient(detectorURL, segmenterURL string, timeout time.Duration) *ModelClient {
	return &ModelClient{
		detectorURL:  detectorURL,
		segmenterURL: segmenterURL,
		timeout:      timeout,
		client:       &http.Client{},
	}
}

type detectResponse struct {
	Categories []string `json:"categories"`
}

// DetectCategories posts the photo to the detector endpoint and returns the
// category names it found, possibly none.
func (c *ModelClient) DetectCategories(ctx context.Context, image []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.detectorURL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: detect: %v", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: detect: status %d", models.ErrExternalService, resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: detect: decode response: %v", models.ErrExternalService, err)
	}
	return out.Categories, nil
}

// SegmentObject asks the segmenter for a crop of the named category.
// A 204 response means the segmenter found nothing for that category.
func (c *ModelClient) SegmentObject(ctx context.Context, image []byte, category string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.segmenterURL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	q := req.URL.Query()
	q.Set("category", category)
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %q: %v", models.ErrExternalService, category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: segment %q: status %d", models.ErrExternalService, category, resp.StatusCode)
	}

	crop, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %q: read response: %v", models.ErrExternalService, category, err)
	}
	return crop, nil
}
