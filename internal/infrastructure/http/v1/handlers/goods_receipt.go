package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockgate/internal/core/id"
	"stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/infrastructure/http/v1/dto"
	"stockgate/internal/infrastructure/storage/postgres"
)

// GoodsReceiptService is the command surface the handler drives.
type GoodsReceiptService interface {
	Get(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error)
	CreateFromPurchaseOrder(ctx context.Context, in goods_receipt.CreateFromPOInput) (*goods_receipt.GoodsReceipt, error)
	CreateDirect(ctx context.Context, in goods_receipt.CreateDirectInput) (*goods_receipt.GoodsReceipt, error)
	MarkArrived(ctx context.Context, docID id.ID, in goods_receipt.ArrivalInput) (*goods_receipt.GoodsReceipt, error)
	RecordQC(ctx context.Context, docID id.ID, in goods_receipt.RecordQCInput) (*goods_receipt.GoodsReceipt, error)
	Approve(ctx context.Context, docID id.ID, in goods_receipt.ApproveInput) (*goods_receipt.GoodsReceipt, error)
	UpdateQCStatus(ctx context.Context, docID id.ID, in goods_receipt.UpdateQCInput) (*goods_receipt.GoodsReceipt, error)
	Cancel(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error)
	Delete(ctx context.Context, docID id.ID) error
}

// HistoryReader returns the audit trail of an entity.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// GoodsReceiptHandler handles HTTP requests for GoodsReceipt documents.
type GoodsReceiptHandler struct {
	*BaseHandler
	service GoodsReceiptService
	history HistoryReader
}

// NewGoodsReceiptHandler creates a new goods receipt handler. history may be nil.
func NewGoodsReceiptHandler(base *BaseHandler, service GoodsReceiptService, history HistoryReader) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{
		BaseHandler: base,
		service:     service,
		history:     history,
	}
}

// RegisterRoutes mounts the goods receipt endpoints on receipts and the
// receive-against-order endpoint on orders.
func (h *GoodsReceiptHandler) RegisterRoutes(receipts, orders *gin.RouterGroup) {
	orders.POST("/:id/goods-receipts", h.CreateFromPurchaseOrder)

	rg := receipts
	rg.POST("", h.CreateDirect)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/arrive", h.MarkArrived)
	rg.POST("/:id/qc", h.RecordQC)
	rg.PATCH("/:id/qc", h.UpdateQCStatus)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/cancel", h.Cancel)
	if h.history != nil {
		rg.GET("/:id/history", h.History)
	}
}

// CreateFromPurchaseOrder handles POST /purchase-orders/:id/goods-receipts
func (h *GoodsReceiptHandler) CreateFromPurchaseOrder(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateFromPORequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	req.PurchaseOrderID = poID

	doc, err := h.service.CreateFromPurchaseOrder(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromGoodsReceipt(doc))
}

// CreateDirect handles POST /goods-receipts
func (h *GoodsReceiptHandler) CreateDirect(c *gin.Context) {
	var req dto.CreateDirectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.CreateDirect(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromGoodsReceipt(doc))
}

// Get handles GET /goods-receipts/:id
func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// MarkArrived handles POST /goods-receipts/:id/arrive
func (h *GoodsReceiptHandler) MarkArrived(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkArrivedRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	doc, err := h.service.MarkArrived(c.Request.Context(), docID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// RecordQC handles POST /goods-receipts/:id/qc
func (h *GoodsReceiptHandler) RecordQC(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordQCRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.RecordQC(c.Request.Context(), docID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// UpdateQCStatus handles PATCH /goods-receipts/:id/qc
func (h *GoodsReceiptHandler) UpdateQCStatus(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateQCRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdateQCStatus(c.Request.Context(), docID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// Approve handles POST /goods-receipts/:id/approve
func (h *GoodsReceiptHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApproveRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	doc, err := h.service.Approve(c.Request.Context(), docID, goods_receipt.ApproveInput{Notes: req.Notes})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// Cancel handles POST /goods-receipts/:id/cancel
func (h *GoodsReceiptHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// Delete handles DELETE /goods-receipts/:id
func (h *GoodsReceiptHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /goods-receipts/:id/history
func (h *GoodsReceiptHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), goods_receipt.EntityName, docID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}
