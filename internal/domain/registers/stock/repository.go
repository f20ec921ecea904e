// Package stock provides the stock ledger and its monthly balance register.
package stock

import (
	"context"
	"time"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
)

// Repository defines storage operations for the stock register.
//
// Balance lookups return (nil, nil) when the row does not exist.
type Repository interface {
	// Ledger

	// CreateDetail appends a ledger entry.
	CreateDetail(ctx context.Context, detail *entity.StockDetail) error

	// GetDetailsByReference returns the entries booked under a document number.
	GetDetailsByReference(ctx context.Context, referenceNo string) ([]entity.StockDetail, error)

	// DeleteDetail removes an entry whose effect has been reverted.
	DeleteDetail(ctx context.Context, detailID id.ID) error

	// Balances

	// GetBalance reads a balance row without locking.
	GetBalance(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)

	// GetBalanceForUpdate reads a balance row and locks it until the transaction ends.
	GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)

	// GetLatestBalanceBefore returns the most recent row of the same product
	// and warehouse with a period earlier than key.Period.
	GetLatestBalanceBefore(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)

	// InsertBalanceIfAbsent inserts the row unless one with the same key exists.
	InsertBalanceIfAbsent(ctx context.Context, balance *entity.StockBalance) error

	// UpdateBalance writes all quantity and value columns of a locked row.
	UpdateBalance(ctx context.Context, balance *entity.StockBalance) error

	// ListBalances returns the rows of one period.
	ListBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// Projection

	// RefreshProductStock recomputes products.stock_quantity from the latest
	// balance row of every warehouse.
	RefreshProductStock(ctx context.Context, productID id.ID) error
}

// BalanceFilter selects balance rows of one period.
type BalanceFilter struct {
	Period      time.Time
	WarehouseID *id.ID
	ProductIDs  []id.ID
	Limit       int
}
