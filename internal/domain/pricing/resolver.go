// Package pricing resolves the unit cost at which received stock enters the ledger.
package pricing

import (
	"context"
	"fmt"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/procurement"
)

// Source exposes the documents a price can be taken from.
// Lookups report found=false instead of NotFound when nothing matches.
type Source interface {
	GetStockTransfer(ctx context.Context, transferID id.ID) (*procurement.StockTransfer, error)

	// RequisitionIssuePrice finds a material requisition whose notes mention
	// transferNumber and that has a line for productID.
	RequisitionIssuePrice(ctx context.Context, transferNumber string, productID id.ID) (types.Money, bool, error)

	PurchaseOrderLinePrice(ctx context.Context, lineID id.ID) (types.Money, bool, error)
	PurchaseRequestEstimatedPrice(ctx context.Context, detailID id.ID) (types.Money, bool, error)
}

// Input identifies one received item.
type Input struct {
	SourceType              entity.StockSource
	ProductID               id.ID
	StockTransferID         *id.ID
	PurchaseOrderLineID     *id.ID
	PurchaseRequestDetailID *id.ID
}

// Resolver applies the fixed source priority:
//
//	TRANSFER: requisition issue price, then transfer COGS / transferred quantity
//	otherwise: PO line unit price, then PR estimated price
//
// and falls back to zero. The result is never negative.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the unit price for in.
func (r *Resolver) Resolve(ctx context.Context, in Input) (types.Money, error) {
	var (
		price types.Money
		found bool
		err   error
	)
	if in.SourceType == entity.SourceTransfer {
		price, found, err = r.transferPrice(ctx, in)
	} else {
		price, found, err = r.purchasePrice(ctx, in)
	}
	if err != nil {
		return types.Zero(), err
	}
	if !found {
		return types.Zero(), nil
	}
	return types.NonNegative(price), nil
}

func (r *Resolver) transferPrice(ctx context.Context, in Input) (types.Money, bool, error) {
	if in.StockTransferID == nil {
		return types.Zero(), false, nil
	}
	transfer, err := r.source.GetStockTransfer(ctx, *in.StockTransferID)
	if err != nil {
		return types.Zero(), false, fmt.Errorf("load stock transfer: %w", err)
	}

	price, found, err := r.source.RequisitionIssuePrice(ctx, transfer.Number, in.ProductID)
	if err != nil {
		return types.Zero(), false, fmt.Errorf("requisition issue price: %w", err)
	}
	if found {
		return price, true, nil
	}

	line, ok := transfer.Line(in.ProductID)
	if !ok || !line.Quantity.IsPositive() {
		return types.Zero(), false, nil
	}
	return line.COGS.Div(line.Quantity.Decimal()), true, nil
}

func (r *Resolver) purchasePrice(ctx context.Context, in Input) (types.Money, bool, error) {
	if in.PurchaseOrderLineID != nil {
		price, found, err := r.source.PurchaseOrderLinePrice(ctx, *in.PurchaseOrderLineID)
		if err != nil {
			return types.Zero(), false, fmt.Errorf("purchase order line price: %w", err)
		}
		if found {
			return price, true, nil
		}
	}

	if in.PurchaseRequestDetailID != nil {
		price, found, err := r.source.PurchaseRequestEstimatedPrice(ctx, *in.PurchaseRequestDetailID)
		if err != nil {
			return types.Zero(), false, fmt.Errorf("purchase request price: %w", err)
		}
		if found {
			return price, true, nil
		}
	}

	return types.Zero(), false, nil
}
