package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"stockgate/internal/core/id"
	"stockgate/internal/domain/documents/goods_receipt"
	"stockgate/pkg/logger"
)

// ProjectionRefresher recomputes the cached product stock.
type ProjectionRefresher interface {
	RefreshProductStock(ctx context.Context, productID id.ID) error
}

// Handlers consume goods receipt events.
type Handlers struct {
	projection ProjectionRefresher
}

// NewHandlers creates the event consumers.
func NewHandlers(projection ProjectionRefresher) *Handlers {
	return &Handlers{projection: projection}
}

// Register mounts every handler on mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskGoodsReceiptCompleted, h.HandleCompleted)
	mux.HandleFunc(TaskGoodsReceiptCancelled, h.HandleStatusChange)
	mux.HandleFunc(TaskGoodsReceiptDeleted, h.HandleStatusChange)
}

// HandleCompleted reconciles the product stock projection of every posted
// product. Refreshing is idempotent, so redelivery is harmless.
func (h *Handlers) HandleCompleted(ctx context.Context, t *asynq.Task) error {
	var payload goods_receipt.CompletedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}

	seen := make(map[id.ID]struct{}, len(payload.Items))
	for _, item := range payload.Items {
		if !item.QtyPassed.IsPositive() {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		if err := h.projection.RefreshProductStock(ctx, item.ProductID); err != nil {
			return fmt.Errorf("refresh product %s: %w", item.ProductID, err)
		}
	}

	logger.Info(ctx, "goods receipt completion consumed",
		"id", payload.ID,
		"number", payload.Number,
		"products", len(seen))
	return nil
}

// HandleStatusChange records cancellations and deletions.
func (h *Handlers) HandleStatusChange(ctx context.Context, t *asynq.Task) error {
	var payload goods_receipt.StatusPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	logger.Info(ctx, "goods receipt status change consumed",
		"task", t.Type(),
		"id", payload.ID,
		"number", payload.Number,
		"status", payload.Status)
	return nil
}
