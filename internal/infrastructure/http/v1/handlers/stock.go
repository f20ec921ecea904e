package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/domain/registers/stock"
	"stockgate/internal/infrastructure/http/v1/dto"
)

// BalanceReader reads period balances.
type BalanceReader interface {
	GetBalance(ctx context.Context, productID, warehouseID id.ID, at time.Time) (*entity.StockBalance, error)
	ListBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error)
}

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	balances BalanceReader
	now      func() time.Time
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, balances BalanceReader) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		balances:    balances,
		now:         time.Now,
	}
}

// GetBalance handles GET /stock/balances/:productId/:warehouseId?period=YYYY-MM
func (h *StockHandler) GetBalance(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}
	warehouseID, ok := h.ParseID(c, "warehouseId")
	if !ok {
		return
	}
	period, ok := h.period(c)
	if !ok {
		return
	}

	balance, err := h.balances.GetBalance(c.Request.Context(), productID, warehouseID, period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockBalance(*balance))
}

// ListBalances handles GET /stock/balances?period=YYYY-MM&warehouseId=&productId=
func (h *StockHandler) ListBalances(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}

	filter := stock.BalanceFilter{
		Period: period,
		Limit:  h.ParseIntQuery(c, "limit", 100),
	}

	warehouseID, err := id.ParseOptional(c.Query("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}
	filter.WarehouseID = warehouseID

	productID, err := id.ParseOptional(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	if productID != nil {
		filter.ProductIDs = []id.ID{*productID}
	}

	rows, err := h.balances.ListBalances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockBalanceResponse, len(rows))
	for i, b := range rows {
		items[i] = dto.FromStockBalance(b)
	}
	h.OK(c, dto.NewListResponse(items))
}

// period parses the period query parameter, defaulting to the current month.
func (h *StockHandler) period(c *gin.Context) (time.Time, bool) {
	raw := c.Query("period")
	if raw == "" {
		return entity.PeriodOf(h.now()), true
	}
	parsed, err := time.Parse(dto.PeriodLayout, raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid period format, expected YYYY-MM").WithDetail("period", raw))
		return time.Time{}, false
	}
	return parsed, true
}
