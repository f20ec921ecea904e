// Package procurement_repo reads purchase orders, transfers and requisitions
// and writes the receipt state a goods receipt propagates to them.
package procurement_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
	"stockgate/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderLinesTable = "purchase_order_lines"
	stockTransfersTable     = "stock_transfers"
	stockTransferLinesTable = "stock_transfer_lines"
)

var (
	purchaseOrderCols     = postgres.ExtractDBColumns[procurement.PurchaseOrder]()
	purchaseOrderLineCols = postgres.ExtractDBColumns[procurement.PurchaseOrderLine]()
	stockTransferCols     = postgres.ExtractDBColumns[procurement.StockTransfer]()
	stockTransferLineCols = postgres.ExtractDBColumns[procurement.StockTransferLine]()
)

// Repo implements procurement.Repository and pricing.Source.
type Repo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var (
	_ procurement.Repository = (*Repo)(nil)
	_ pricing.Source         = (*Repo)(nil)
)

// New creates a procurement repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetPurchaseOrder returns the order with its lines.
func (r *Repo) GetPurchaseOrder(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, poID, false)
}

// GetPurchaseOrderForUpdate returns the order with the header row locked.
func (r *Repo) GetPurchaseOrderForUpdate(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, poID, true)
}

func (r *Repo) getPurchaseOrder(ctx context.Context, poID id.ID, forUpdate bool) (*procurement.PurchaseOrder, error) {
	q := r.builder.
		Select(purchaseOrderCols...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var po procurement.PurchaseOrder
	if err := pgxscan.Get(ctx, querier, &po, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", poID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	sql, args, err = r.builder.
		Select(purchaseOrderLineCols...).
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"purchase_order_id": poID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &po.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase order lines: %w", err)
	}

	return &po, nil
}

// AddLineReceipt accumulates received and rejected quantities, floored at zero.
func (r *Repo) AddLineReceipt(ctx context.Context, lineID id.ID, received, rejected types.Quantity) error {
	sql, args, err := r.builder.
		Update(purchaseOrderLinesTable).
		Set("received_quantity", squirrel.Expr("GREATEST(received_quantity + ?, 0)", received)).
		Set("rejected_quantity", squirrel.Expr("GREATEST(rejected_quantity + ?, 0)", rejected)).
		Where(squirrel.Eq{"id": lineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order line", lineID.String())
	}
	return nil
}

// SetPurchaseOrderStatus writes the header status.
func (r *Repo) SetPurchaseOrderStatus(ctx context.Context, poID id.ID, status procurement.POStatus) error {
	sql, args, err := r.builder.
		Update(purchaseOrdersTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": poID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	return nil
}

// GetStockTransfer returns the transfer with its lines.
func (r *Repo) GetStockTransfer(ctx context.Context, transferID id.ID) (*procurement.StockTransfer, error) {
	sql, args, err := r.builder.
		Select(stockTransferCols...).
		From(stockTransfersTable).
		Where(squirrel.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var transfer procurement.StockTransfer
	if err := pgxscan.Get(ctx, querier, &transfer, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock transfer", transferID.String())
		}
		return nil, fmt.Errorf("get stock transfer: %w", err)
	}

	sql, args, err = r.builder.
		Select(stockTransferLineCols...).
		From(stockTransferLinesTable).
		Where(squirrel.Eq{"stock_transfer_id": transferID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &transfer.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get stock transfer lines: %w", err)
	}

	return &transfer, nil
}

// MarkTransferReceived moves an IN_TRANSIT transfer to RECEIVED.
func (r *Repo) MarkTransferReceived(ctx context.Context, transferID id.ID) (bool, error) {
	sql, args, err := r.builder.
		Update(stockTransfersTable).
		Set("status", procurement.TransferStatusReceived).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": transferID, "status": procurement.TransferStatusInTransit}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update stock transfer: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

const requisitionIssuePriceSQL = `
	SELECT mrl.issue_price
	FROM material_requisition_lines mrl
	JOIN material_requisitions mr ON mr.id = mrl.material_requisition_id
	WHERE mr.notes LIKE '%' || $1 || '%'
	  AND mrl.product_id = $2
	  AND mrl.issue_price IS NOT NULL
	ORDER BY mr.created_at DESC
	LIMIT 1
`

// RequisitionIssuePrice finds the issue price of the requisition that
// references transferNumber in its notes.
func (r *Repo) RequisitionIssuePrice(ctx context.Context, transferNumber string, productID id.ID) (types.Money, bool, error) {
	return r.price(ctx, requisitionIssuePriceSQL, transferNumber, productID)
}

// PurchaseOrderLinePrice returns the unit price of a PO line. Zero counts as absent.
func (r *Repo) PurchaseOrderLinePrice(ctx context.Context, lineID id.ID) (types.Money, bool, error) {
	return r.price(ctx,
		"SELECT unit_price FROM purchase_order_lines WHERE id = $1 AND unit_price IS NOT NULL AND unit_price <> 0",
		lineID)
}

// PurchaseRequestEstimatedPrice returns the estimate of a purchase request detail.
func (r *Repo) PurchaseRequestEstimatedPrice(ctx context.Context, detailID id.ID) (types.Money, bool, error) {
	return r.price(ctx,
		"SELECT estimated_unit_price FROM purchase_request_details WHERE id = $1 AND estimated_unit_price IS NOT NULL",
		detailID)
}

func (r *Repo) price(ctx context.Context, sql string, args ...any) (types.Money, bool, error) {
	var price types.Money
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&price); err != nil {
		if pgxscan.NotFound(err) {
			return types.Zero(), false, nil
		}
		return types.Zero(), false, fmt.Errorf("query price: %w", err)
	}
	return price, true, nil
}
