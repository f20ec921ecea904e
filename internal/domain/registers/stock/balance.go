package stock

import (
	"context"
	"fmt"
	"time"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
)

// GetBalance returns the balance of the period containing at. A period
// without a row reports the figures it would open with.
func (s *Service) GetBalance(ctx context.Context, productID, warehouseID id.ID, at time.Time) (*entity.StockBalance, error) {
	key := entity.NewBalanceKey(productID, warehouseID, at)
	balance, err := s.repo.GetBalance(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	if balance != nil {
		return balance, nil
	}

	prior, err := s.repo.GetLatestBalanceBefore(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get prior stock balance: %w", err)
	}
	opened := entity.CarryForward(key, prior)
	return &opened, nil
}

// ListBalances returns the stored rows of a period.
func (s *Service) ListBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error) {
	filter.Period = entity.PeriodOf(filter.Period)
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListBalances(ctx, filter)
}

// lockBalance returns the locked row for key, opening it by carry-over when
// missing. The insert tolerates a concurrent opener; the subsequent lock
// waits for it, so both increments land on the same row.
func (s *Service) lockBalance(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	balance, err := s.repo.GetBalanceForUpdate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lock stock balance: %w", err)
	}
	if balance != nil {
		return balance, nil
	}

	prior, err := s.repo.GetLatestBalanceBefore(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get prior stock balance: %w", err)
	}
	opened := entity.CarryForward(key, prior)
	if err := s.repo.InsertBalanceIfAbsent(ctx, &opened); err != nil {
		return nil, fmt.Errorf("open stock balance: %w", err)
	}

	balance, err = s.repo.GetBalanceForUpdate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lock stock balance: %w", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("stock balance %s/%s/%s missing after insert",
			key.ProductID, key.WarehouseID, key.Period.Format("2006-01"))
	}
	return balance, nil
}
