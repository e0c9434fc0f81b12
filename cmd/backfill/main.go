// Command backfill enqueues embedding tasks for catalog products. With no
// flags it targets every product that still has no embedding; -product
// targets one product and -force recomputes an existing embedding.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/config"
	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/observability"
	"github.com/your-org/stylerec/internal/queue"
	"github.com/your-org/stylerec/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	productID := flag.String("product", "", "backfill a single product by id")
	force := flag.Bool("force", false, "recompute embeddings that already exist")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	ctx := context.Background()

	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Error("ensure nats streams", "error", err)
		os.Exit(1)
	}

	var ids []uuid.UUID
	if *productID != "" {
		id, err := uuid.Parse(*productID)
		if err != nil {
			slog.Error("invalid product id", "value", *productID)
			os.Exit(1)
		}
		ids = []uuid.UUID{id}
	} else {
		ids, err = db.ListProductsMissingEmbedding(ctx)
		if err != nil {
			slog.Error("list products missing embedding", "error", err)
			os.Exit(1)
		}
	}

	if len(ids) == 0 {
		slog.Info("nothing to backfill")
		return
	}

	enqueued := 0
	for _, id := range ids {
		task := models.ProductBackfillTask{ProductID: id, Force: *force}
		if err := producer.PublishProductTask(ctx, id.String(), task); err != nil {
			slog.Error("enqueue backfill task", "product_id", id, "error", err)
			continue
		}
		enqueued++
	}

	slog.Info("backfill tasks enqueued", "count", enqueued, "force", *force)
}
