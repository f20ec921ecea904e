package stock

import (
	"context"
	"fmt"
	"time"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/pkg/logger"
)

// Receipt is one inbound posting.
type Receipt struct {
	ProductID   id.ID
	WarehouseID id.ID
	Quantity    types.Quantity
	Price       types.Money
	Source      entity.StockSource
	ReferenceNo string

	// At selects the balance period and stamps the ledger entry.
	At time.Time
}

func (r Receipt) validate() error {
	switch {
	case !r.Quantity.IsPositive():
		return apperror.NewValidation("posted quantity must be positive").
			WithDetail("product_id", r.ProductID.String()).
			WithDetail("quantity", r.Quantity.String())
	case id.IsNil(r.ProductID) || id.IsNil(r.WarehouseID):
		return apperror.NewValidation("product and warehouse are required")
	case !r.Source.IsValid():
		return apperror.NewValidation("unknown stock source").WithDetail("source", string(r.Source))
	case r.ReferenceNo == "":
		return apperror.NewValidation("reference number is required")
	case r.Price.IsNegative():
		return apperror.NewValidation("price must not be negative").WithDetail("price", r.Price.String())
	}
	return nil
}

// Service appends ledger entries and keeps the monthly balances consistent.
// Every method must run inside the caller's transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PostReceipt books r into the ledger and its period balance.
func (s *Service) PostReceipt(ctx context.Context, r Receipt) (*entity.StockDetail, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	key := entity.NewBalanceKey(r.ProductID, r.WarehouseID, r.At)
	balance, err := s.lockBalance(ctx, key)
	if err != nil {
		return nil, err
	}

	opening := balance.StockAkhir
	balance.ApplyReceipt(r.Quantity, r.Price, r.Source)

	detail := &entity.StockDetail{
		ID:                 id.New(),
		ProductID:          r.ProductID,
		WarehouseID:        r.WarehouseID,
		Type:               entity.MovementIn,
		TransQty:           r.Quantity,
		ResidualQty:        r.Quantity,
		PricePerUnit:       r.Price,
		Source:             r.Source,
		ReferenceNo:        r.ReferenceNo,
		StockAwalSnapshot:  opening,
		StockAkhirSnapshot: opening + r.Quantity,
		Period:             key.Period,
		CreatedAt:          r.At.UTC(),
	}
	if err := s.repo.CreateDetail(ctx, detail); err != nil {
		return nil, fmt.Errorf("create stock detail: %w", err)
	}
	if err := s.repo.UpdateBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("update stock balance: %w", err)
	}
	if err := s.repo.RefreshProductStock(ctx, r.ProductID); err != nil {
		return nil, fmt.Errorf("refresh product stock: %w", err)
	}

	logger.Debug(ctx, "stock receipt posted",
		"reference_no", r.ReferenceNo,
		"product_id", r.ProductID,
		"warehouse_id", r.WarehouseID,
		"quantity", r.Quantity.String(),
		"stock_akhir", balance.StockAkhir.String(),
	)

	return detail, nil
}

// ReverseReceipts undoes every entry booked under referenceNo and deletes them.
// Entries whose stock was already consumed cannot be reversed.
func (s *Service) ReverseReceipts(ctx context.Context, referenceNo string) ([]entity.StockDetail, error) {
	details, err := s.repo.GetDetailsByReference(ctx, referenceNo)
	if err != nil {
		return nil, fmt.Errorf("get stock details: %w", err)
	}

	products := make(map[id.ID]struct{})
	for _, d := range details {
		if d.Type != entity.MovementIn {
			continue
		}
		if d.ResidualQty != d.TransQty {
			return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "received stock has already been consumed").
				WithDetail("stock_detail_id", d.ID.String()).
				WithDetail("reference_no", referenceNo)
		}

		balance, err := s.lockBalance(ctx, entity.BalanceKey{ProductID: d.ProductID, WarehouseID: d.WarehouseID, Period: d.Period})
		if err != nil {
			return nil, err
		}
		balance.RevertReceipt(d.TransQty, d.PricePerUnit, d.Source)

		if err := s.repo.UpdateBalance(ctx, balance); err != nil {
			return nil, fmt.Errorf("update stock balance: %w", err)
		}
		if err := s.repo.DeleteDetail(ctx, d.ID); err != nil {
			return nil, fmt.Errorf("delete stock detail: %w", err)
		}
		products[d.ProductID] = struct{}{}
	}

	for productID := range products {
		if err := s.repo.RefreshProductStock(ctx, productID); err != nil {
			return nil, fmt.Errorf("refresh product stock: %w", err)
		}
	}

	if len(details) > 0 {
		logger.Info(ctx, "reversed stock receipts", "reference_no", referenceNo, "count", len(details))
	}
	return details, nil
}
