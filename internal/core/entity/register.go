// Package entity provides core domain entities.
package entity

import (
	"time"

	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

// MovementType is the direction of a ledger entry.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockSource identifies where received stock came from.
type StockSource string

const (
	SourcePurchaseOrder StockSource = "PO"
	SourceTransfer      StockSource = "TRANSFER"
	SourceDirect        StockSource = "DIRECT"
)

// IsValid reports whether s is a known source.
func (s StockSource) IsValid() bool {
	switch s {
	case SourcePurchaseOrder, SourceTransfer, SourceDirect:
		return true
	}
	return false
}

// StockDetail is one append-only ledger entry. Rows are never edited in
// place; a reversal deletes the row and applies the inverse to its balance.
type StockDetail struct {
	ID          id.ID        `db:"id" json:"id"`
	ProductID   id.ID        `db:"product_id" json:"productId"`
	WarehouseID id.ID        `db:"warehouse_id" json:"warehouseId"`
	Type        MovementType `db:"type" json:"type"`

	TransQty     types.Quantity `db:"trans_qty" json:"transQty"`
	ResidualQty  types.Quantity `db:"residual_qty" json:"residualQty"`
	PricePerUnit types.Money    `db:"price_per_unit" json:"pricePerUnit"`

	Source      StockSource `db:"source" json:"source"`
	ReferenceNo string      `db:"reference_no" json:"referenceNo"`

	// Balance of the period row immediately before and after this entry.
	StockAwalSnapshot  types.Quantity `db:"stock_awal_snapshot" json:"stockAwalSnapshot"`
	StockAkhirSnapshot types.Quantity `db:"stock_akhir_snapshot" json:"stockAkhirSnapshot"`

	Period    time.Time `db:"period" json:"period"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PeriodOf returns the first instant of the month containing t, in UTC.
func PeriodOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BalanceKey identifies one monthly balance row.
type BalanceKey struct {
	ProductID   id.ID
	WarehouseID id.ID
	Period      time.Time
}

// NewBalanceKey normalizes the period to the first of the month.
func NewBalanceKey(productID, warehouseID id.ID, at time.Time) BalanceKey {
	return BalanceKey{ProductID: productID, WarehouseID: warehouseID, Period: PeriodOf(at)}
}

// StockBalance is the running monthly balance of one product in one warehouse.
//
// Invariants after every write:
//
//	StockAkhir     = StockAwal + StockIn - StockOut
//	AvailableStock = max(0, StockAkhir - BookedStock)
type StockBalance struct {
	ProductID   id.ID     `db:"product_id" json:"productId"`
	WarehouseID id.ID     `db:"warehouse_id" json:"warehouseId"`
	Period      time.Time `db:"period" json:"period"`

	StockAwal      types.Quantity `db:"stock_awal" json:"stockAwal"`
	StockIn        types.Quantity `db:"stock_in" json:"stockIn"`
	StockOut       types.Quantity `db:"stock_out" json:"stockOut"`
	StockAkhir     types.Quantity `db:"stock_akhir" json:"stockAkhir"`
	BookedStock    types.Quantity `db:"booked_stock" json:"bookedStock"`
	AvailableStock types.Quantity `db:"available_stock" json:"availableStock"`
	OnPR           types.Quantity `db:"on_pr" json:"onPr"`
	InventoryValue types.Money    `db:"inventory_value" json:"inventoryValue"`

	Version   int       `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the identifying key of the row.
func (b *StockBalance) Key() BalanceKey {
	return BalanceKey{ProductID: b.ProductID, WarehouseID: b.WarehouseID, Period: b.Period}
}

// CarryForward opens a balance for key from the closing figures of prior.
// A nil prior opens an empty period.
func CarryForward(key BalanceKey, prior *StockBalance) StockBalance {
	b := StockBalance{
		ProductID:      key.ProductID,
		WarehouseID:    key.WarehouseID,
		Period:         PeriodOf(key.Period),
		InventoryValue: types.Zero(),
	}
	if prior != nil {
		b.StockAwal = prior.StockAkhir
		b.BookedStock = prior.BookedStock
		b.OnPR = prior.OnPR
		b.InventoryValue = prior.InventoryValue
	}
	b.Recompute()
	return b
}

// Recompute derives StockAkhir and AvailableStock from the other columns.
func (b *StockBalance) Recompute() {
	b.StockAkhir = b.StockAwal + b.StockIn - b.StockOut
	b.AvailableStock = (b.StockAkhir - b.BookedStock).FloorZero()
}

// ApplyReceipt books an inbound quantity at the given unit price.
func (b *StockBalance) ApplyReceipt(qty types.Quantity, price types.Money, source StockSource) {
	b.StockIn += qty
	if source != SourceTransfer {
		b.OnPR = (b.OnPR - qty).FloorZero()
	}
	b.InventoryValue = b.InventoryValue.Add(qty.Amount(price))
	b.Recompute()
}

// RevertReceipt is the inverse of ApplyReceipt. The on-PR figure is restored
// by the reverted quantity since the floor applied on receipt is not recorded.
func (b *StockBalance) RevertReceipt(qty types.Quantity, price types.Money, source StockSource) {
	b.StockIn -= qty
	if source != SourceTransfer {
		b.OnPR += qty
	}
	b.InventoryValue = types.NonNegative(b.InventoryValue.Sub(qty.Amount(price)))
	b.Recompute()
}

// Consistent reports whether the derived columns match the invariants.
func (b *StockBalance) Consistent() bool {
	return b.StockAkhir == b.StockAwal+b.StockIn-b.StockOut &&
		b.AvailableStock == (b.StockAkhir-b.BookedStock).FloorZero()
}
