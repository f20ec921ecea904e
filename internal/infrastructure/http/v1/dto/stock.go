package dto

import (
	"time"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/types"
)

// StockBalanceResponse represents a monthly stock balance in API responses.
type StockBalanceResponse struct {
	ProductID      string         `json:"productId"`
	WarehouseID    string         `json:"warehouseId"`
	Period         string         `json:"period"` // YYYY-MM
	StockAwal      types.Quantity `json:"stockAwal"`
	StockIn        types.Quantity `json:"stockIn"`
	StockOut       types.Quantity `json:"stockOut"`
	StockAkhir     types.Quantity `json:"stockAkhir"`
	BookedStock    types.Quantity `json:"bookedStock"`
	AvailableStock types.Quantity `json:"availableStock"`
	OnPR           types.Quantity `json:"onPr"`
	InventoryValue types.Money    `json:"inventoryValue"`
	UpdatedAt      *time.Time     `json:"updatedAt,omitempty"`
}

// FromStockBalance converts entity to response DTO.
func FromStockBalance(b entity.StockBalance) StockBalanceResponse {
	// A carried-forward period that was never written has no timestamp.
	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		val := b.UpdatedAt
		updatedAt = &val
	}

	return StockBalanceResponse{
		ProductID:      b.ProductID.String(),
		WarehouseID:    b.WarehouseID.String(),
		Period:         b.Period.Format(PeriodLayout),
		StockAwal:      b.StockAwal,
		StockIn:        b.StockIn,
		StockOut:       b.StockOut,
		StockAkhir:     b.StockAkhir,
		BookedStock:    b.BookedStock,
		AvailableStock: b.AvailableStock,
		OnPR:           b.OnPR,
		InventoryValue: b.InventoryValue,
		UpdatedAt:      updatedAt,
	}
}

// PeriodLayout is the query and response format of a balance period.
const PeriodLayout = "2006-01"
