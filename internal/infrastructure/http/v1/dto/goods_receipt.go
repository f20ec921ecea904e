package dto

import (
	"time"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/documents/goods_receipt"
)

// --- Request DTOs ---

// CreateFromPORequest starts a receipt for every line of a purchase order.
// The order is taken from the path.
type CreateFromPORequest struct {
	PurchaseOrderID id.ID      `json:"-"`
	ReceivedByID    *id.ID     `json:"receivedById,omitempty"`
	Number          string     `json:"number,omitempty"`
	ExpectedDate    *time.Time `json:"expectedDate,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// ToInput converts the request to a service command.
func (r *CreateFromPORequest) ToInput() goods_receipt.CreateFromPOInput {
	return goods_receipt.CreateFromPOInput{
		PurchaseOrderID: r.PurchaseOrderID,
		ReceivedByID:    derefID(r.ReceivedByID),
		Number:          r.Number,
		ExpectedDate:    r.ExpectedDate,
		Notes:           r.Notes,
	}
}

// CreateDirectRequest creates a receipt with its items.
type CreateDirectRequest struct {
	Number             string              `json:"number,omitempty"`
	PurchaseOrderID    *id.ID              `json:"purchaseOrderId,omitempty"`
	StockTransferID    *id.ID              `json:"stockTransferId,omitempty"`
	WarehouseID        id.ID               `json:"warehouseId"`
	ReceivedByID       *id.ID              `json:"receivedById,omitempty"`
	VendorDeliveryNote string              `json:"vendorDeliveryNote,omitempty"`
	VehicleNumber      string              `json:"vehicleNumber,omitempty"`
	DriverName         string              `json:"driverName,omitempty"`
	ReceivedDate       *time.Time          `json:"receivedDate,omitempty"`
	ExpectedDate       *time.Time          `json:"expectedDate,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	Items              []DirectItemRequest `json:"items" binding:"required,min=1"`
}

// DirectItemRequest is one item of a direct receipt. QtyPassed and
// QtyRejected together mark the item as inspected.
type DirectItemRequest struct {
	ProductID               id.ID                   `json:"productId"`
	Unit                    string                  `json:"unit,omitempty"`
	QtyPlanReceived         types.Quantity          `json:"qtyPlanReceived"`
	QtyReceived             types.Quantity          `json:"qtyReceived"`
	QtyPassed               *types.Quantity         `json:"qtyPassed,omitempty"`
	QtyRejected             *types.Quantity         `json:"qtyRejected,omitempty"`
	QCStatus                *goods_receipt.QCStatus `json:"qcStatus,omitempty"`
	QCNotes                 string                  `json:"qcNotes,omitempty"`
	PurchaseOrderLineID     *id.ID                  `json:"purchaseOrderLineId,omitempty"`
	PurchaseRequestDetailID *id.ID                  `json:"purchaseRequestDetailId,omitempty"`
}

// ToInput converts the request to a service command.
func (r *CreateDirectRequest) ToInput() goods_receipt.CreateDirectInput {
	in := goods_receipt.CreateDirectInput{
		Number:             r.Number,
		PurchaseOrderID:    r.PurchaseOrderID,
		StockTransferID:    r.StockTransferID,
		WarehouseID:        r.WarehouseID,
		ReceivedByID:       derefID(r.ReceivedByID),
		VendorDeliveryNote: r.VendorDeliveryNote,
		VehicleNumber:      r.VehicleNumber,
		DriverName:         r.DriverName,
		ReceivedDate:       r.ReceivedDate,
		ExpectedDate:       r.ExpectedDate,
		Notes:              r.Notes,
		Items:              make([]goods_receipt.DirectItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		di := goods_receipt.DirectItemInput{
			ProductID:               item.ProductID,
			Unit:                    item.Unit,
			QtyPlanReceived:         item.QtyPlanReceived,
			QtyReceived:             item.QtyReceived,
			PurchaseOrderLineID:     item.PurchaseOrderLineID,
			PurchaseRequestDetailID: item.PurchaseRequestDetailID,
		}
		if item.QtyPassed != nil || item.QtyRejected != nil || item.QCStatus != nil {
			di.QC = &goods_receipt.QCInput{
				QtyPassed:   derefQty(item.QtyPassed),
				QtyRejected: derefQty(item.QtyRejected),
				Status:      item.QCStatus,
				Notes:       item.QCNotes,
			}
		}
		in.Items = append(in.Items, di)
	}
	return in
}

// MarkArrivedRequest records goods reaching the dock.
type MarkArrivedRequest struct {
	ReceivedDate       *time.Time           `json:"receivedDate,omitempty"`
	VendorDeliveryNote *string              `json:"vendorDeliveryNote,omitempty"`
	VehicleNumber      *string              `json:"vehicleNumber,omitempty"`
	DriverName         *string              `json:"driverName,omitempty"`
	Notes              *string              `json:"notes,omitempty"`
	Items              []ArrivalItemRequest `json:"items,omitempty"`
}

// ArrivalItemRequest sets the counted quantity of one item.
type ArrivalItemRequest struct {
	ItemID      id.ID          `json:"itemId"`
	QtyReceived types.Quantity `json:"qtyReceived"`
}

// ToInput converts the request to a service command.
func (r *MarkArrivedRequest) ToInput() goods_receipt.ArrivalInput {
	in := goods_receipt.ArrivalInput{
		ReceivedDate:       r.ReceivedDate,
		VendorDeliveryNote: r.VendorDeliveryNote,
		VehicleNumber:      r.VehicleNumber,
		DriverName:         r.DriverName,
		Notes:              r.Notes,
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, goods_receipt.ArrivalItemInput{ItemID: item.ItemID, QtyReceived: item.QtyReceived})
	}
	return in
}

// RecordQCRequest carries QC results.
type RecordQCRequest struct {
	Items []QCItemRequest `json:"items" binding:"required,min=1"`
}

// QCItemRequest is the QC result of one item.
type QCItemRequest struct {
	ItemID      id.ID           `json:"itemId"`
	QtyReceived *types.Quantity `json:"qtyReceived,omitempty"`
	QtyPassed   types.Quantity  `json:"qtyPassed"`
	QtyRejected types.Quantity  `json:"qtyRejected"`
	Notes       *string         `json:"qcNotes,omitempty"`
}

// ToInput converts the request to a service command.
func (r *RecordQCRequest) ToInput() goods_receipt.RecordQCInput {
	in := goods_receipt.RecordQCInput{Items: make([]goods_receipt.QCItemInput, 0, len(r.Items))}
	for _, item := range r.Items {
		in.Items = append(in.Items, goods_receipt.QCItemInput{
			ItemID:      item.ItemID,
			QtyReceived: item.QtyReceived,
			QtyPassed:   item.QtyPassed,
			QtyRejected: item.QtyRejected,
			Notes:       item.Notes,
		})
	}
	return in
}

// ApproveRequest completes a receipt.
type ApproveRequest struct {
	Notes string `json:"notes,omitempty"`
}

// UpdateQCRequest amends item QC data.
type UpdateQCRequest struct {
	Items []QCAmendmentRequest `json:"items" binding:"required,min=1"`
}

// QCAmendmentRequest amends one item; omitted fields stay unchanged.
type QCAmendmentRequest struct {
	ItemID      id.ID                   `json:"itemId"`
	QtyReceived *types.Quantity         `json:"qtyReceived,omitempty"`
	QtyPassed   *types.Quantity         `json:"qtyPassed,omitempty"`
	QtyRejected *types.Quantity         `json:"qtyRejected,omitempty"`
	QCStatus    *goods_receipt.QCStatus `json:"qcStatus,omitempty"`
	QCNotes     *string                 `json:"qcNotes,omitempty"`
}

// ToInput converts the request to a service command.
func (r *UpdateQCRequest) ToInput() goods_receipt.UpdateQCInput {
	in := goods_receipt.UpdateQCInput{Items: make([]goods_receipt.QCAmendmentInput, 0, len(r.Items))}
	for _, item := range r.Items {
		in.Items = append(in.Items, goods_receipt.QCAmendmentInput{
			ItemID:      item.ItemID,
			QtyReceived: item.QtyReceived,
			QtyPassed:   item.QtyPassed,
			QtyRejected: item.QtyRejected,
			QCStatus:    item.QCStatus,
			QCNotes:     item.QCNotes,
		})
	}
	return in
}

func derefID(v *id.ID) id.ID {
	if v == nil {
		return id.Nil()
	}
	return *v
}

func derefQty(v *types.Quantity) types.Quantity {
	if v == nil {
		return 0
	}
	return *v
}

// --- Response DTOs ---

// GoodsReceiptResponse represents a goods receipt in API responses.
type GoodsReceiptResponse struct {
	ID                 string                     `json:"id"`
	Number             string                     `json:"number"`
	Date               time.Time                  `json:"date"`
	Status             goods_receipt.Status       `json:"status"`
	SourceType         entity.StockSource         `json:"sourceType"`
	PurchaseOrderID    *string                    `json:"purchaseOrderId,omitempty"`
	StockTransferID    *string                    `json:"stockTransferId,omitempty"`
	WarehouseID        string                     `json:"warehouseId"`
	ReceivedByID       string                     `json:"receivedById"`
	VendorDeliveryNote string                     `json:"vendorDeliveryNote,omitempty"`
	VehicleNumber      string                     `json:"vehicleNumber,omitempty"`
	DriverName         string                     `json:"driverName,omitempty"`
	ReceivedDate       *time.Time                 `json:"receivedDate,omitempty"`
	ExpectedDate       *time.Time                 `json:"expectedDate,omitempty"`
	Notes              string                     `json:"notes,omitempty"`
	ApprovedBy         *string                    `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time                 `json:"approvedAt,omitempty"`
	Version            int                        `json:"version"`
	Items              []GoodsReceiptItemResponse `json:"items"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`
}

// GoodsReceiptItemResponse represents an item in API responses.
type GoodsReceiptItemResponse struct {
	ID                      string                   `json:"id"`
	LineNo                  int                      `json:"lineNo"`
	ProductID               string                   `json:"productId"`
	Unit                    string                   `json:"unit,omitempty"`
	QtyPlanReceived         types.Quantity           `json:"qtyPlanReceived"`
	QtyReceived             types.Quantity           `json:"qtyReceived"`
	QtyPassed               types.Quantity           `json:"qtyPassed"`
	QtyRejected             types.Quantity           `json:"qtyRejected"`
	Status                  goods_receipt.ItemStatus `json:"status"`
	QCStatus                goods_receipt.QCStatus   `json:"qcStatus"`
	QCNotes                 string                   `json:"qcNotes,omitempty"`
	PurchaseOrderLineID     *string                  `json:"purchaseOrderLineId,omitempty"`
	PurchaseRequestDetailID *string                  `json:"purchaseRequestDetailId,omitempty"`
	StockDetailID           *string                  `json:"stockDetailId,omitempty"`
}

// FromGoodsReceipt converts entity to response DTO.
func FromGoodsReceipt(doc *goods_receipt.GoodsReceipt) GoodsReceiptResponse {
	resp := GoodsReceiptResponse{
		ID:                 doc.ID.String(),
		Number:             doc.Number,
		Date:               doc.Date,
		Status:             doc.Status,
		SourceType:         doc.SourceType,
		PurchaseOrderID:    idString(doc.PurchaseOrderID),
		StockTransferID:    idString(doc.StockTransferID),
		WarehouseID:        doc.WarehouseID.String(),
		ReceivedByID:       doc.ReceivedByID.String(),
		VendorDeliveryNote: doc.VendorDeliveryNote,
		VehicleNumber:      doc.VehicleNumber,
		DriverName:         doc.DriverName,
		ReceivedDate:       doc.ReceivedDate,
		ExpectedDate:       doc.ExpectedDate,
		Notes:              doc.Notes,
		ApprovedBy:         doc.ApprovedBy,
		ApprovedAt:         doc.ApprovedAt,
		Version:            doc.Version,
		Items:              make([]GoodsReceiptItemResponse, len(doc.Items)),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}

	for i, item := range doc.Items {
		resp.Items[i] = GoodsReceiptItemResponse{
			ID:                      item.ID.String(),
			LineNo:                  item.LineNo,
			ProductID:               item.ProductID.String(),
			Unit:                    item.Unit,
			QtyPlanReceived:         item.QtyPlanReceived,
			QtyReceived:             item.QtyReceived,
			QtyPassed:               item.QtyPassed,
			QtyRejected:             item.QtyRejected,
			Status:                  item.Status,
			QCStatus:                item.QCStatus,
			QCNotes:                 item.QCNotes,
			PurchaseOrderLineID:     idString(item.PurchaseOrderLineID),
			PurchaseRequestDetailID: idString(item.PurchaseRequestDetailID),
			StockDetailID:           idString(item.StockDetailID),
		}
	}

	return resp
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
