package procurement

import (
	"context"

	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// Repository reads procurement documents and updates their receipt state.
type Repository interface {
	// --- Purchase orders ---

	// GetPurchaseOrder returns the order with its lines. NotFound if missing.
	GetPurchaseOrder(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetPurchaseOrderForUpdate is GetPurchaseOrder with the header row locked (FOR UPDATE).
	GetPurchaseOrderForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// AddLineReceipt adds to the accumulated received and rejected quantities
	// of a line. Negative deltas revert a receipt; totals never drop below zero.
	AddLineReceipt(ctx context.Context, lineID id.ID, received, rejected types.Quantity) error

	SetPurchaseOrderStatus(ctx context.Context, poID id.ID, status POStatus) error

	// --- Stock transfers ---

	GetStockTransfer(ctx context.Context, transferID id.ID) (*StockTransfer, error)

	// MarkTransferReceived moves an IN_TRANSIT transfer to RECEIVED.
	// Returns false when the transfer was in any other status.
	MarkTransferReceived(ctx context.Context, transferID id.ID) (bool, error)
}
