package goods_receipt

import (
	"time"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/event"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// Event types published through the outbox.
const (
	EventCompleted = "GoodsReceiptCompleted"
	EventCancelled = "GoodsReceiptCancelled"
	EventDeleted   = "GoodsReceiptDeleted"
)

// CompletedPayload is the body of EventCompleted.
type CompletedPayload struct {
	ID              id.ID              `json:"id"`
	Number          string             `json:"number"`
	SourceType      entity.StockSource `json:"sourceType"`
	WarehouseID     id.ID              `json:"warehouseId"`
	PurchaseOrderID *id.ID             `json:"purchaseOrderId,omitempty"`
	StockTransferID *id.ID             `json:"stockTransferId,omitempty"`
	ApprovedAt      time.Time          `json:"approvedAt"`
	Items           []PostedItem       `json:"items"`
}

// PostedItem is one item of a completed receipt.
type PostedItem struct {
	ProductID     id.ID          `json:"productId"`
	QtyPassed     types.Quantity `json:"qtyPassed"`
	QtyRejected   types.Quantity `json:"qtyRejected"`
	StockDetailID *id.ID         `json:"stockDetailId,omitempty"`
}

// StatusPayload is the body of EventCancelled and EventDeleted.
type StatusPayload struct {
	ID     id.ID  `json:"id"`
	Number string `json:"number"`
	Status Status `json:"status"`
}

func completedEvent(doc *GoodsReceipt) event.Event {
	payload := CompletedPayload{
		ID:              doc.ID,
		Number:          doc.Number,
		SourceType:      doc.SourceType,
		WarehouseID:     doc.WarehouseID,
		PurchaseOrderID: doc.PurchaseOrderID,
		StockTransferID: doc.StockTransferID,
		Items:           make([]PostedItem, 0, len(doc.Items)),
	}
	if doc.ApprovedAt != nil {
		payload.ApprovedAt = *doc.ApprovedAt
	}
	for _, item := range doc.Items {
		payload.Items = append(payload.Items, PostedItem{
			ProductID:     item.ProductID,
			QtyPassed:     item.QtyPassed,
			QtyRejected:   item.QtyRejected,
			StockDetailID: item.StockDetailID,
		})
	}
	return event.Event{AggregateType: EntityName, AggregateID: doc.ID, Type: EventCompleted, Payload: payload}
}

func statusEvent(doc *GoodsReceipt, eventType string) event.Event {
	return event.Event{
		AggregateType: EntityName,
		AggregateID:   doc.ID,
		Type:          eventType,
		Payload:       StatusPayload{ID: doc.ID, Number: doc.Number, Status: doc.Status},
	}
}
