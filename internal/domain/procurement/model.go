// Package procurement holds the upstream documents a goods receipt consumes:
// purchase orders and stock transfers. Only their receipt-related state is
// mutated here.
package procurement

import (
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// POStatus is the lifecycle status of a purchase order.
type POStatus string

const (
	POStatusDraft             POStatus = "DRAFT"
	POStatusApproved          POStatus = "APPROVED"
	POStatusSent              POStatus = "SENT"
	POStatusPartiallyReceived POStatus = "PARTIALLY_RECEIVED"
	POStatusFullyReceived     POStatus = "FULLY_RECEIVED"
	POStatusCancelled         POStatus = "CANCELLED"
	POStatusRejected          POStatus = "REJECTED"
)

// IsClosed reports whether receipts may no longer change the status.
func (s POStatus) IsClosed() bool {
	return s == POStatusCancelled || s == POStatusRejected
}

// PurchaseOrder is the ordering document goods are received against.
type PurchaseOrder struct {
	ID          id.ID    `db:"id" json:"id"`
	Number      string   `db:"number" json:"number"`
	Status      POStatus `db:"status" json:"status"`
	WarehouseID *id.ID   `db:"warehouse_id" json:"warehouseId,omitempty"`

	Lines []PurchaseOrderLine `db:"-" json:"lines"`
}

// PurchaseOrderLine accumulates received and rejected quantities across receipts.
type PurchaseOrderLine struct {
	ID                      id.ID          `db:"id" json:"id"`
	PurchaseOrderID         id.ID          `db:"purchase_order_id" json:"purchaseOrderId"`
	ProductID               id.ID          `db:"product_id" json:"productId"`
	Unit                    string         `db:"unit" json:"unit"`
	Quantity                types.Quantity `db:"quantity" json:"quantity"`
	ReceivedQuantity        types.Quantity `db:"received_quantity" json:"receivedQuantity"`
	RejectedQuantity        types.Quantity `db:"rejected_quantity" json:"rejectedQuantity"`
	UnitPrice               types.Money    `db:"unit_price" json:"unitPrice"`
	PurchaseRequestDetailID *id.ID         `db:"purchase_request_detail_id" json:"purchaseRequestDetailId,omitempty"`
}

// Totals sums ordered and received quantities over all lines.
func (po *PurchaseOrder) Totals() (ordered, received types.Quantity) {
	for _, l := range po.Lines {
		ordered += l.Quantity
		received += l.ReceivedQuantity
	}
	return ordered, received
}

// ReceiptStatus derives the status implied by the received totals.
// The second result is false when the status must stay as it is.
func (po *PurchaseOrder) ReceiptStatus() (POStatus, bool) {
	if po.Status.IsClosed() {
		return po.Status, false
	}
	ordered, received := po.Totals()
	switch {
	case ordered > 0 && received >= ordered:
		return POStatusFullyReceived, po.Status != POStatusFullyReceived
	case received > 0:
		return POStatusPartiallyReceived, po.Status != POStatusPartiallyReceived
	}
	return po.Status, false
}

// TransferStatus is the lifecycle status of a stock transfer.
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "DRAFT"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusReceived  TransferStatus = "RECEIVED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// StockTransfer moves stock between warehouses; the receiving side books it
// through a goods receipt.
type StockTransfer struct {
	ID              id.ID          `db:"id" json:"id"`
	Number          string         `db:"number" json:"number"`
	Status          TransferStatus `db:"status" json:"status"`
	FromWarehouseID id.ID          `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID          `db:"to_warehouse_id" json:"toWarehouseId"`

	Lines []StockTransferLine `db:"-" json:"lines"`
}

// StockTransferLine carries the cost of goods sent for one product.
type StockTransferLine struct {
	ID              id.ID          `db:"id" json:"id"`
	StockTransferID id.ID          `db:"stock_transfer_id" json:"stockTransferId"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	COGS            types.Money    `db:"cogs" json:"cogs"`
}

// Line returns the first line for productID.
func (t *StockTransfer) Line(productID id.ID) (*StockTransferLine, bool) {
	for i := range t.Lines {
		if t.Lines[i].ProductID == productID {
			return &t.Lines[i], true
		}
	}
	return nil, false
}
