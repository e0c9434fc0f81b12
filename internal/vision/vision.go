// Package vision holds the collaborator boundary to the three pretrained
// CV models. The models themselves are opaque: the detector and segmenter
// run behind an external model server, the embedder is an in-process ONNX
// session. All calls are context-bounded.
package vision

import "context"

// Detector finds clothing categories present in a full photo. An empty
// result is a valid outcome, not an error.
type Detector interface {
	DetectCategories(ctx context.Context, image []byte) ([]string, error)
}

// Segmenter crops the region of the image containing the named category.
// Returns (nil, nil) when the category could not be segmented.
type Segmenter interface {
	SegmentObject(ctx context.Context, image []byte, category string) ([]byte, error)
}

// Embedder maps an image to a fixed-length style vector of dimension D.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
	Dim() int
}
