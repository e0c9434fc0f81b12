// Package pipeline orchestrates style image processing: detect clothing
// categories, segment each one, embed the crops and record similar products,
// then notify the user. It also runs product embedding backfill tasks.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/notify"
	"github.com/your-org/stylerec/internal/observability"
	"github.com/your-org/stylerec/internal/queue"
	"github.com/your-org/stylerec/internal/recommend"
	"github.com/your-org/stylerec/internal/storage"
	"github.com/your-org/stylerec/internal/vision"
)

// Store is the persistence surface the pipeline needs. Both
// storage.PostgresStore and storage.MemoryStore satisfy it.
type Store interface {
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateSegment(ctx context.Context, styleImageID, categoryID uuid.UUID, imageKey string) (*models.Segment, error)
	AddSegmentEmbedding(ctx context.Context, segmentID uuid.UUID, embedding []float32) (*models.StyleEmbedding, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetProductEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, force bool) (bool, error)
}

// ObjectStore reads and writes image blobs.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

type Pipeline struct {
	store       Store
	objects     ObjectStore
	detector    vision.Detector
	segmenter   vision.Segmenter
	embedder    vision.Embedder
	recommender *recommend.Service
	notifier    notify.Notifier
	topN        int

	// The ONNX session reuses its tensors between calls, so all Embed
	// calls across the worker pool go through this mutex.
	embedMu sync.Mutex
}

func New(store Store, objects ObjectStore, detector vision.Detector, segmenter vision.Segmenter,
	embedder vision.Embedder, recommender *recommend.Service, notifier notify.Notifier, topN int) *Pipeline {
	return &Pipeline{
		store:       store,
		objects:     objects,
		detector:    detector,
		segmenter:   segmenter,
		embedder:    embedder,
		recommender: recommender,
		notifier:    notifier,
		topN:        topN,
	}
}

// HandleTask dispatches a raw queue message on its subject family.
func (p *Pipeline) HandleTask(ctx context.Context, msg jetstream.Msg) error {
	subject := msg.Subject()
	switch {
	case strings.HasPrefix(subject, queue.StyleImageSubject+"."):
		var task models.StyleImageTask
		if err := json.Unmarshal(msg.Data(), &task); err != nil {
			slog.Error("unmarshal style image task, dropping", "subject", subject, "error", err)
			return nil
		}
		return p.ProcessStyleImage(ctx, task)
	case strings.HasPrefix(subject, queue.ProductSubject+"."):
		var task models.ProductBackfillTask
		if err := json.Unmarshal(msg.Data(), &task); err != nil {
			slog.Error("unmarshal product task, dropping", "subject", subject, "error", err)
			return nil
		}
		return p.ProcessProductBackfill(ctx, task)
	default:
		slog.Warn("unknown task subject, dropping", "subject", subject)
		return nil
	}
}

type notificationPayload struct {
	StyleImageID uuid.UUID  `json:"style_image_id"`
	LogID        *uuid.UUID `json:"log_id,omitempty"`
	Segments     int        `json:"segments"`
	Products     int        `json:"products"`
}

// ProcessStyleImage runs the full pipeline for one uploaded photo. Detected
// categories are processed concurrently; a failure in one category skips
// that category and never fails the image. Exactly one notification goes out
// after all categories settle, including when nothing was detected. The
// returned error (model server down, storage unreachable) makes the queue
// redeliver the task.
func (p *Pipeline) ProcessStyleImage(ctx context.Context, task models.StyleImageTask) error {
	log := slog.With("style_image_id", task.StyleImageID, "user_id", task.UserID)

	image, err := p.objects.GetObject(ctx, task.ImageKey)
	if err != nil {
		return fmt.Errorf("load style image %s: %w", task.ImageKey, err)
	}

	detectStart := time.Now()
	categories, err := p.detector.DetectCategories(ctx, image)
	observability.PipelineStageDuration.WithLabelValues("detect").Observe(time.Since(detectStart).Seconds())
	if err != nil {
		return fmt.Errorf("detect categories: %w", err)
	}
	log.Info("detected categories", "categories", categories)

	var (
		mu       sync.Mutex
		segments int
		logID    *uuid.UUID
		products int
	)

	var wg sync.WaitGroup
	for _, category := range categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()

			recLog, ok := p.processCategory(ctx, task, image, category)
			if !ok {
				return
			}

			mu.Lock()
			segments++
			if recLog != nil {
				id := recLog.ID
				logID = &id
				if len(recLog.ProductIDs) > products {
					products = len(recLog.ProductIDs)
				}
			}
			mu.Unlock()
		}(category)
	}
	wg.Wait()

	payload, _ := json.Marshal(notificationPayload{
		StyleImageID: task.StyleImageID,
		LogID:        logID,
		Segments:     segments,
		Products:     products,
	})

	title := "Your style recommendations are ready"
	message := fmt.Sprintf("We matched %d products across %d items from your photo", products, segments)
	if segments == 0 {
		title = "We looked at your photo"
		message = "No clothing items could be matched in your photo"
	}
	p.notifier.Notify(ctx, task.UserID, title, message, payload)

	observability.ImagesProcessed.Inc()
	log.Info("style image processed", "segments", segments, "products", products)
	return nil
}

// processCategory handles one detected category end to end: segment, store
// the crop, embed it and record recommendations. Returns ok=false when the
// category was skipped.
func (p *Pipeline) processCategory(ctx context.Context, task models.StyleImageTask, image []byte, category string) (*models.RecommendationLog, bool) {
	log := slog.With("style_image_id", task.StyleImageID, "category", category)

	cat, err := p.store.GetCategoryByName(ctx, category)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			observability.SegmentsSkipped.WithLabelValues("unknown_category").Inc()
			log.Warn("skipping category", "error", fmt.Errorf("%w: %q", models.ErrCategoryUnknown, category))
		} else {
			observability.SegmentsSkipped.WithLabelValues("storage_error").Inc()
			log.Error("resolve category", "error", err)
		}
		return nil, false
	}

	segStart := time.Now()
	crop, err := p.segmenter.SegmentObject(ctx, image, category)
	observability.PipelineStageDuration.WithLabelValues("segment").Observe(time.Since(segStart).Seconds())
	if err != nil {
		observability.SegmentsSkipped.WithLabelValues("segment_failed").Inc()
		log.Warn("segmentation failed, skipping category", "error", err)
		return nil, false
	}
	if crop == nil {
		observability.SegmentsSkipped.WithLabelValues("no_object").Inc()
		log.Info("segmenter found no object, skipping category")
		return nil, false
	}

	cropKey := storage.SegmentKey(task.StyleImageID, strings.ToLower(category))
	if err := p.objects.PutObject(ctx, cropKey, crop, "image/jpeg"); err != nil {
		observability.SegmentsSkipped.WithLabelValues("storage_error").Inc()
		log.Error("store segment crop", "error", err)
		return nil, false
	}

	seg, err := p.store.CreateSegment(ctx, task.StyleImageID, cat.ID, cropKey)
	if err != nil {
		observability.SegmentsSkipped.WithLabelValues("storage_error").Inc()
		log.Error("create segment", "error", err)
		return nil, false
	}

	embedStart := time.Now()
	p.embedMu.Lock()
	embedding, err := p.embedder.Embed(ctx, crop)
	p.embedMu.Unlock()
	observability.PipelineStageDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())
	if err != nil {
		observability.SegmentsSkipped.WithLabelValues("embed_failed").Inc()
		log.Error("embed segment", "error", err)
		return nil, false
	}

	if _, err := p.store.AddSegmentEmbedding(ctx, seg.ID, embedding); err != nil {
		observability.SegmentsSkipped.WithLabelValues("storage_error").Inc()
		log.Error("store segment embedding", "error", err)
		return nil, false
	}

	searchStart := time.Now()
	matches, err := p.recommender.Search(ctx, embedding, cat.ID, p.topN)
	observability.PipelineStageDuration.WithLabelValues("search").Observe(time.Since(searchStart).Seconds())
	if err != nil {
		observability.SegmentsSkipped.WithLabelValues("search_failed").Inc()
		log.Error("similarity search", "error", err)
		return nil, false
	}

	productIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		productIDs = append(productIDs, m.Product.ID)
	}

	recLog, err := p.recommender.Record(ctx, task.UserID, task.StyleImageID, productIDs)
	if err != nil {
		observability.SegmentsSkipped.WithLabelValues("storage_error").Inc()
		log.Error("record recommendations", "error", err)
		return nil, false
	}

	observability.SegmentsCreated.WithLabelValues(strings.ToLower(category)).Inc()
	log.Info("category processed", "segment_id", seg.ID, "matches", len(matches))
	return recLog, true
}

// ProcessProductBackfill makes sure one product has an embedding. Already
// embedded products are left alone unless the task forces a recompute, so
// the same task can be enqueued from product creation, the backfill command
// and manual retries without double work.
func (p *Pipeline) ProcessProductBackfill(ctx context.Context, task models.ProductBackfillTask) error {
	log := slog.With("product_id", task.ProductID)

	product, err := p.store.GetProduct(ctx, task.ProductID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("product gone, dropping backfill task")
			return nil
		}
		return fmt.Errorf("get product: %w", err)
	}

	if len(product.Embedding) > 0 && !task.Force {
		log.Debug("product already embedded, skipping")
		return nil
	}
	if len(product.ImageKeys) == 0 {
		log.Warn("product has no images, cannot embed")
		return nil
	}

	image, err := p.objects.GetObject(ctx, product.ImageKeys[0])
	if err != nil {
		return fmt.Errorf("load product image %s: %w", product.ImageKeys[0], err)
	}

	embedStart := time.Now()
	p.embedMu.Lock()
	embedding, err := p.embedder.Embed(ctx, image)
	p.embedMu.Unlock()
	observability.PipelineStageDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())
	if err != nil {
		return fmt.Errorf("embed product image: %w", err)
	}

	updated, err := p.store.SetProductEmbedding(ctx, task.ProductID, embedding, task.Force)
	if err != nil {
		return fmt.Errorf("set product embedding: %w", err)
	}
	if updated {
		observability.ProductsEmbedded.Inc()
		log.Info("product embedded")
	} else {
		log.Debug("embedding already set by a concurrent task")
	}
	return nil
}
