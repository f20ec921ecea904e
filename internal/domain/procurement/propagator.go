package procurement

import (
	"context"
	"fmt"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/pkg/logger"
)

// Completion describes a goods receipt whose effects were just posted or reverted.
type Completion struct {
	ReceiptNumber   string
	SourceType      entity.StockSource
	PurchaseOrderID *id.ID
	StockTransferID *id.ID
}

// Propagator pushes the aggregate receipt state back to the source documents.
type Propagator struct {
	repo Repository
}

// NewPropagator creates a propagator.
func NewPropagator(repo Repository) *Propagator {
	return &Propagator{repo: repo}
}

// Propagate must run inside the transaction that changed the PO line totals.
func (p *Propagator) Propagate(ctx context.Context, c Completion) error {
	if c.SourceType == entity.SourceTransfer && c.StockTransferID != nil {
		changed, err := p.repo.MarkTransferReceived(ctx, *c.StockTransferID)
		if err != nil {
			return fmt.Errorf("mark transfer received: %w", err)
		}
		if changed {
			logger.Debug(ctx, "stock transfer received", "transfer_id", *c.StockTransferID, "receipt", c.ReceiptNumber)
		}
	}

	if c.PurchaseOrderID == nil {
		return nil
	}

	po, err := p.repo.GetPurchaseOrderForUpdate(ctx, *c.PurchaseOrderID)
	if err != nil {
		return err
	}

	status, changed := po.ReceiptStatus()
	if !changed {
		return nil
	}
	if err := p.repo.SetPurchaseOrderStatus(ctx, po.ID, status); err != nil {
		return fmt.Errorf("set purchase order status: %w", err)
	}

	logger.Debug(ctx, "purchase order status updated",
		"purchase_order", po.Number,
		"from", po.Status,
		"to", status,
		"receipt", c.ReceiptNumber,
	)
	return nil
}
