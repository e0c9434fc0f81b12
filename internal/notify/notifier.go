// Package notify delivers user notifications. Delivery is fire-and-forget:
// at-most-once, failures are logged and never retried by this subsystem.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/observability"
	"github.com/your-org/stylerec/internal/queue"
)

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, payload json.RawMessage)
}

// QueueNotifier publishes notifications onto the NOTIFICATIONS stream. The
// API service consumes them, persists a row and pushes to connected
// WebSocket clients.
type QueueNotifier struct {
	producer *queue.Producer
}

func NewQueueNotifier(producer *queue.Producer) *QueueNotifier {
	return &QueueNotifier{producer: producer}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, payload json.RawMessage) {
	msg := models.NotificationMessage{
		UserID:  userID,
		Title:   title,
		Message: message,
		Payload: payload,
	}
	if err := n.producer.PublishNotification(ctx, userID.String(), msg); err != nil {
		slog.Error("publish notification", "user_id", userID, "error", err)
		return
	}
	observability.NotificationsSent.Inc()
}
