package memstore

import (
	"context"
	"sort"
	"sync"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/registers/stock"
)

// Stock implements stock.Repository.
type Stock struct {
	mu       sync.Mutex
	details  map[id.ID]entity.StockDetail
	balances map[entity.BalanceKey]entity.StockBalance
	products map[id.ID]types.Quantity
}

var _ stock.Repository = (*Stock)(nil)

// NewStock creates an empty stock store.
func NewStock() *Stock {
	return &Stock{
		details:  map[id.ID]entity.StockDetail{},
		balances: map[entity.BalanceKey]entity.StockBalance{},
		products: map[id.ID]types.Quantity{},
	}
}

// Snapshot implements Snapshotter.
func (s *Stock) Snapshot() func() {
	s.mu.Lock()
	details, balances, products := cloneMap(s.details), cloneMap(s.balances), cloneMap(s.products)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.details, s.balances, s.products = details, balances, products
		s.mu.Unlock()
	}
}

// PutBalance stores a balance row as is.
func (s *Stock) PutBalance(b entity.StockBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Period = entity.PeriodOf(b.Period)
	s.balances[b.Key()] = b
}

// Balance returns a stored row.
func (s *Stock) Balance(key entity.BalanceKey) (entity.StockBalance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[key]
	return b, ok
}

// Details returns all ledger entries ordered by creation.
func (s *Stock) Details() []entity.StockDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockDetail, 0, len(s.details))
	for _, d := range s.details {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// ProductStock returns the projected on-hand quantity of a product.
func (s *Stock) ProductStock(productID id.ID) types.Quantity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID]
}

func (s *Stock) CreateDetail(_ context.Context, d *entity.StockDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[d.ID] = *d
	return nil
}

func (s *Stock) GetDetailsByReference(_ context.Context, referenceNo string) ([]entity.StockDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockDetail
	for _, d := range s.details {
		if d.ReferenceNo == referenceNo {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Stock) DeleteDetail(_ context.Context, detailID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, detailID)
	return nil
}

func (s *Stock) GetBalance(_ context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[key]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Stock) GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return s.GetBalance(ctx, key)
}

func (s *Stock) GetLatestBalanceBefore(_ context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *entity.StockBalance
	for k, b := range s.balances {
		if k.ProductID != key.ProductID || k.WarehouseID != key.WarehouseID || !k.Period.Before(key.Period) {
			continue
		}
		if latest == nil || k.Period.After(latest.Period) {
			row := b
			latest = &row
		}
	}
	return latest, nil
}

func (s *Stock) InsertBalanceIfAbsent(_ context.Context, b *entity.StockBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[b.Key()]; !ok {
		row := *b
		row.Version = 1
		s.balances[b.Key()] = row
	}
	return nil
}

func (s *Stock) UpdateBalance(_ context.Context, b *entity.StockBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *b
	row.Version++
	s.balances[b.Key()] = row
	return nil
}

func (s *Stock) ListBalances(_ context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockBalance
	for k, b := range s.balances {
		if !k.Period.Equal(filter.Period) {
			continue
		}
		if filter.WarehouseID != nil && k.WarehouseID != *filter.WarehouseID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Stock) RefreshProductStock(_ context.Context, productID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[id.ID]entity.StockBalance{}
	for k, b := range s.balances {
		if k.ProductID != productID {
			continue
		}
		if cur, ok := latest[k.WarehouseID]; !ok || k.Period.After(cur.Period) {
			latest[k.WarehouseID] = b
		}
	}
	var total types.Quantity
	for _, b := range latest {
		total += b.StockAkhir
	}
	s.products[productID] = total
	return nil
}
