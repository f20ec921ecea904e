package goods_receipt

import (
	"context"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
	"stockgate/internal/domain/registers/stock"
)

// Repository persists goods receipts with their items.
type Repository interface {
	// Create inserts header and items. A taken number fails DuplicateDocumentNumber.
	Create(ctx context.Context, doc *GoodsReceipt) error

	// GetByID returns the receipt with items. NotFound if missing.
	GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error)

	// GetForUpdate is GetByID with the header row locked (FOR UPDATE).
	GetForUpdate(ctx context.Context, docID id.ID) (*GoodsReceipt, error)

	// Update writes header and items when the stored version equals
	// doc.Version, then increments it. A stale version fails ConcurrentModification.
	Update(ctx context.Context, doc *GoodsReceipt) error

	// Delete removes header and items.
	Delete(ctx context.Context, docID id.ID) error

	NumberExists(ctx context.Context, number string) (bool, error)
}

// References checks catalog entries a receipt points at.
type References interface {
	WarehouseExists(ctx context.Context, warehouseID id.ID) (bool, error)
	UserExists(ctx context.Context, userID id.ID) (bool, error)

	// MissingProducts returns the ids in productIDs that do not exist.
	MissingProducts(ctx context.Context, productIDs []id.ID) ([]id.ID, error)
}

// PurchaseOrders is the part of procurement a receipt reads and updates.
type PurchaseOrders interface {
	GetPurchaseOrder(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error)
	GetStockTransfer(ctx context.Context, transferID id.ID) (*procurement.StockTransfer, error)
	AddLineReceipt(ctx context.Context, lineID id.ID, received, rejected types.Quantity) error
}

// Ledger posts and reverses stock receipts.
type Ledger interface {
	PostReceipt(ctx context.Context, r stock.Receipt) (*entity.StockDetail, error)
	ReverseReceipts(ctx context.Context, referenceNo string) ([]entity.StockDetail, error)
}

// PriceResolver returns the unit cost of a received item.
type PriceResolver interface {
	Resolve(ctx context.Context, in pricing.Input) (types.Money, error)
}

// Propagator updates the source documents after a receipt completes.
type Propagator interface {
	Propagate(ctx context.Context, c procurement.Completion) error
}
