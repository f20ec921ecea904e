package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
)

func TestPeriodOf(t *testing.T) {
	at := time.Date(2026, time.March, 31, 23, 59, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), PeriodOf(at))
}

func TestCarryForward(t *testing.T) {
	key := NewBalanceKey(id.New(), id.New(), time.Date(2026, time.May, 14, 0, 0, 0, 0, time.UTC))
	prior := &StockBalance{
		StockAwal:      types.NewQuantity(10),
		StockIn:        types.NewQuantity(5),
		StockAkhir:     types.NewQuantity(15),
		BookedStock:    types.NewQuantity(4),
		OnPR:           types.NewQuantity(20),
		InventoryValue: types.MustMoney("150"),
	}

	b := CarryForward(key, prior)

	assert.Equal(t, types.NewQuantity(15), b.StockAwal)
	assert.Equal(t, types.Quantity(0), b.StockIn)
	assert.Equal(t, types.NewQuantity(15), b.StockAkhir)
	assert.Equal(t, types.NewQuantity(11), b.AvailableStock)
	assert.Equal(t, types.NewQuantity(20), b.OnPR)
	assert.True(t, types.MustMoney("150").Equal(b.InventoryValue))
	assert.Equal(t, time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), b.Period)
	assert.True(t, b.Consistent())

	empty := CarryForward(key, nil)
	assert.Equal(t, types.Quantity(0), empty.StockAkhir)
	assert.True(t, empty.InventoryValue.IsZero())
}

func TestApplyReceipt(t *testing.T) {
	b := StockBalance{
		StockAwal:      types.NewQuantity(10),
		BookedStock:    types.NewQuantity(30),
		OnPR:           types.NewQuantity(25),
		InventoryValue: types.MustMoney("100"),
	}
	b.Recompute()
	assert.Equal(t, types.Quantity(0), b.AvailableStock)

	b.ApplyReceipt(types.NewQuantity(30), types.MustMoney("2.5"), SourcePurchaseOrder)

	assert.Equal(t, types.NewQuantity(30), b.StockIn)
	assert.Equal(t, types.NewQuantity(40), b.StockAkhir)
	assert.Equal(t, types.NewQuantity(10), b.AvailableStock)
	assert.Equal(t, types.Quantity(0), b.OnPR, "on-PR is floored at zero")
	assert.True(t, types.MustMoney("175").Equal(b.InventoryValue))
	assert.True(t, b.Consistent())
}

func TestApplyReceipt_TransferKeepsOnPR(t *testing.T) {
	b := StockBalance{OnPR: types.NewQuantity(8), InventoryValue: types.Zero()}

	b.ApplyReceipt(types.NewQuantity(3), types.MustMoney("1"), SourceTransfer)

	assert.Equal(t, types.NewQuantity(8), b.OnPR)
	assert.Equal(t, types.NewQuantity(3), b.StockAkhir)
}

func TestRevertReceipt(t *testing.T) {
	b := StockBalance{OnPR: types.NewQuantity(50), InventoryValue: types.Zero()}
	b.ApplyReceipt(types.NewQuantity(20), types.MustMoney("4"), SourceDirect)

	b.RevertReceipt(types.NewQuantity(20), types.MustMoney("4"), SourceDirect)

	assert.Equal(t, types.Quantity(0), b.StockIn)
	assert.Equal(t, types.Quantity(0), b.StockAkhir)
	assert.Equal(t, types.NewQuantity(50), b.OnPR)
	assert.True(t, b.InventoryValue.IsZero())
}
