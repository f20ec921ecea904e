// Package goods_receipt provides the GoodsReceipt document: receiving goods
// against purchase orders and transfers, the QC gate and ledger posting.
package goods_receipt

import (
	"time"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// EntityName is used in errors, audit records and events.
const EntityName = "GoodsReceipt"

// GoodsReceipt records goods physically received into a warehouse.
type GoodsReceipt struct {
	entity.Document

	Status     Status             `db:"status" json:"status"`
	SourceType entity.StockSource `db:"source_type" json:"sourceType"`

	PurchaseOrderID *id.ID `db:"purchase_order_id" json:"purchaseOrderId,omitempty"`
	StockTransferID *id.ID `db:"stock_transfer_id" json:"stockTransferId,omitempty"`

	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`
	ReceivedByID id.ID `db:"received_by_id" json:"receivedById"`

	// Delivery details captured at the dock
	VendorDeliveryNote string `db:"vendor_delivery_note" json:"vendorDeliveryNote"`
	VehicleNumber      string `db:"vehicle_number" json:"vehicleNumber"`
	DriverName         string `db:"driver_name" json:"driverName"`

	ReceivedDate *time.Time `db:"received_date" json:"receivedDate,omitempty"`
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`
	Notes        string     `db:"notes" json:"notes"`

	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one received product line.
type Item struct {
	ID             id.ID  `db:"id" json:"id"`
	GoodsReceiptID id.ID  `db:"goods_receipt_id" json:"goodsReceiptId"`
	LineNo         int    `db:"line_no" json:"lineNo"`
	ProductID      id.ID  `db:"product_id" json:"productId"`
	Unit           string `db:"unit" json:"unit"`

	QtyPlanReceived types.Quantity `db:"qty_plan_received" json:"qtyPlanReceived"`
	QtyReceived     types.Quantity `db:"qty_received" json:"qtyReceived"`
	QtyPassed       types.Quantity `db:"qty_passed" json:"qtyPassed"`
	QtyRejected     types.Quantity `db:"qty_rejected" json:"qtyRejected"`

	Status   ItemStatus `db:"status" json:"status"`
	QCStatus QCStatus   `db:"qc_status" json:"qcStatus"`
	QCNotes  string     `db:"qc_notes" json:"qcNotes"`

	PurchaseOrderLineID     *id.ID `db:"purchase_order_line_id" json:"purchaseOrderLineId,omitempty"`
	PurchaseRequestDetailID *id.ID `db:"purchase_request_detail_id" json:"purchaseRequestDetailId,omitempty"`

	// StockDetailID links the ledger entry created when the item was posted.
	StockDetailID *id.ID `db:"stock_detail_id" json:"stockDetailId,omitempty"`
}

// newGoodsReceipt creates a DRAFT receipt.
func newGoodsReceipt(now time.Time, createdBy string) *GoodsReceipt {
	return &GoodsReceipt{
		Document: entity.NewDocument(now, createdBy),
		Status:   StatusDraft,
	}
}

// addItem appends an item with the next line number.
func (g *GoodsReceipt) addItem(item Item) {
	item.ID = id.New()
	item.GoodsReceiptID = g.ID
	item.LineNo = len(g.Items) + 1
	if item.Status == "" {
		item.Status = ItemReceived
	}
	if item.QCStatus == "" {
		item.QCStatus = QCPending
	}
	g.Items = append(g.Items, item)
}

// Item returns the item with itemID.
func (g *GoodsReceipt) Item(itemID id.ID) (*Item, error) {
	for i := range g.Items {
		if g.Items[i].ID == itemID {
			return &g.Items[i], nil
		}
	}
	return nil, apperror.NewNotFound("goods receipt item", itemID).
		WithDetail("goods_receipt_id", g.ID.String())
}

// ensure fails with InvalidTransition unless the status accepts cmd.
func (g *GoodsReceipt) ensure(cmd Command) error {
	if g.Status.Accepts(cmd) {
		return nil
	}
	return apperror.NewInvalidTransition(EntityName, string(g.Status), string(cmd)).
		WithDetail("id", g.ID.String()).
		WithDetail("number", g.Number)
}

// OpenItems returns the ids of items whose QC has not concluded.
func (g *GoodsReceipt) OpenItems() []string {
	var open []string
	for _, item := range g.Items {
		if item.QCStatus.IsOpen() {
			open = append(open, item.ID.String())
		}
	}
	return open
}

// Validate checks header and item invariants that do not need the database.
func (g *GoodsReceipt) Validate() error {
	if id.IsNil(g.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if id.IsNil(g.ReceivedByID) {
		return apperror.NewValidation("receiver is required").WithDetail("field", "receivedById")
	}
	if !g.SourceType.IsValid() {
		return apperror.NewValidation("unknown source type").WithDetail("source_type", string(g.SourceType))
	}
	if g.SourceType == entity.SourcePurchaseOrder && g.PurchaseOrderID == nil {
		return apperror.NewValidation("purchase order is required for PO receipts").WithDetail("field", "purchaseOrderId")
	}
	if g.SourceType == entity.SourceTransfer && g.StockTransferID == nil {
		return apperror.NewValidation("stock transfer is required for transfer receipts").WithDetail("field", "stockTransferId")
	}
	if len(g.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}

	for i, item := range g.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").WithDetail("line", i+1)
		}
		if item.QtyPlanReceived.IsNegative() || item.QtyReceived.IsNegative() ||
			item.QtyPassed.IsNegative() || item.QtyRejected.IsNegative() {
			return apperror.NewValidation("quantities must not be negative").WithDetail("line", i+1)
		}
	}
	return nil
}

// Arrival carries the dock details recorded by MarkArrived.
type Arrival struct {
	ReceivedDate       time.Time
	VendorDeliveryNote *string
	VehicleNumber      *string
	DriverName         *string
	Notes              *string
	Received           map[id.ID]types.Quantity
}

// markArrived moves a DRAFT receipt to ARRIVED.
func (g *GoodsReceipt) markArrived(a Arrival) error {
	if err := g.ensure(CommandMarkArrived); err != nil {
		return err
	}
	for itemID, qty := range a.Received {
		item, err := g.Item(itemID)
		if err != nil {
			return err
		}
		item.QtyReceived = qty
	}

	received := a.ReceivedDate.UTC()
	g.ReceivedDate = &received
	setIfPresent(&g.VendorDeliveryNote, a.VendorDeliveryNote)
	setIfPresent(&g.VehicleNumber, a.VehicleNumber)
	setIfPresent(&g.DriverName, a.DriverName)
	setIfPresent(&g.Notes, a.Notes)

	for i := range g.Items {
		item := &g.Items[i]
		item.QCStatus = QCArrived
		item.Status = arrivalStatus(item.QtyReceived, item.QtyPlanReceived)
	}
	g.Status = StatusArrived
	return nil
}

// QCResult is the inspection outcome of one item.
type QCResult struct {
	ItemID      id.ID
	QtyReceived *types.Quantity
	QtyPassed   types.Quantity
	QtyRejected types.Quantity
	Notes       *string
}

// recordQC applies strict QC results and moves the receipt to PASSED.
func (g *GoodsReceipt) recordQC(results []QCResult) error {
	if err := g.ensure(CommandRecordQC); err != nil {
		return err
	}
	for _, r := range results {
		item, err := g.Item(r.ItemID)
		if err != nil {
			return err
		}
		received := item.QtyReceived
		if r.QtyReceived != nil {
			received = *r.QtyReceived
		}

		itemStatus, qcStatus, err := Classify(received, r.QtyPassed, r.QtyRejected, nil)
		if err != nil {
			return withItem(err, item)
		}
		item.QtyReceived = received
		item.QtyPassed = r.QtyPassed
		item.QtyRejected = r.QtyRejected
		item.Status = itemStatus
		item.QCStatus = qcStatus
		setIfPresent(&item.QCNotes, r.Notes)
	}
	g.Status = StatusPassed
	return nil
}

// QCAmendment changes the QC data of one item. Nil fields are left as they are.
type QCAmendment struct {
	ItemID      id.ID
	QtyReceived *types.Quantity
	QtyPassed   *types.Quantity
	QtyRejected *types.Quantity
	QCStatus    *QCStatus
	QCNotes     *string
}

func (a QCAmendment) changesQuantities(item *Item) bool {
	return (a.QtyReceived != nil && *a.QtyReceived != item.QtyReceived) ||
		(a.QtyPassed != nil && *a.QtyPassed != item.QtyPassed) ||
		(a.QtyRejected != nil && *a.QtyRejected != item.QtyRejected)
}

// amendQC applies item-level QC amendments and re-derives the header status.
// Posted quantities of a COMPLETED receipt are immutable.
func (g *GoodsReceipt) amendQC(amendments []QCAmendment) error {
	if err := g.ensure(CommandUpdateQC); err != nil {
		return err
	}
	completed := g.Status == StatusCompleted

	for _, a := range amendments {
		item, err := g.Item(a.ItemID)
		if err != nil {
			return err
		}

		if completed {
			if a.changesQuantities(item) || (a.QCStatus != nil && a.QCStatus.IsOpen()) {
				return apperror.NewInvalidTransition(EntityName, string(g.Status), "change posted quantities").
					WithDetail("item_id", item.ID.String())
			}
		}

		received, passed, rejected := item.QtyReceived, item.QtyPassed, item.QtyRejected
		if a.QtyReceived != nil {
			received = *a.QtyReceived
		}
		if a.QtyPassed != nil {
			passed = *a.QtyPassed
		}
		if a.QtyRejected != nil {
			rejected = *a.QtyRejected
		}

		switch {
		case a.QCStatus != nil && a.QCStatus.IsOpen():
			if err := checkOpenQuantities(received, passed, rejected); err != nil {
				return withItem(err, item)
			}
			item.QCStatus = *a.QCStatus
		case a.QCStatus != nil || a.changesQuantities(item):
			itemStatus, qcStatus, err := Classify(received, passed, rejected, a.QCStatus)
			if err != nil {
				return withItem(err, item)
			}
			item.Status = itemStatus
			item.QCStatus = qcStatus
		}

		item.QtyReceived, item.QtyPassed, item.QtyRejected = received, passed, rejected
		setIfPresent(&item.QCNotes, a.QCNotes)
	}

	g.rederiveStatus()
	return nil
}

// rederiveStatus keeps the header in step with item QC while the receipt is open.
func (g *GoodsReceipt) rederiveStatus() {
	switch g.Status {
	case StatusDraft, StatusArrived, StatusPassed:
	default:
		return
	}
	if len(g.OpenItems()) == 0 {
		g.Status = StatusPassed
		return
	}
	if g.Status == StatusPassed {
		g.Status = StatusArrived
	}
}

// checkApprovable verifies status and that every item concluded QC.
func (g *GoodsReceipt) checkApprovable() error {
	if err := g.ensure(CommandApprove); err != nil {
		return err
	}
	if open := g.OpenItems(); len(open) > 0 {
		return apperror.NewNotReadyForApproval(open).
			WithDetail("id", g.ID.String()).
			WithDetail("number", g.Number)
	}
	return nil
}

// complete marks the receipt COMPLETED.
func (g *GoodsReceipt) complete(by string, at time.Time, notes string) {
	at = at.UTC()
	g.Status = StatusCompleted
	g.ApprovedAt = &at
	if by != "" {
		g.ApprovedBy = &by
	}
	if notes != "" {
		if g.Notes != "" {
			g.Notes += "\n"
		}
		g.Notes += notes
	}
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// withItem attaches the offending item to a domain error.
func withItem(err error, item *Item) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("item_id", item.ID.String()).WithDetail("product_id", item.ProductID.String())
	}
	return err
}
