package memstore

import (
	"context"
	"sync"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/pricing"
	"stockgate/internal/domain/procurement"
)

// Procurement implements procurement.Repository and pricing.Source.
type Procurement struct {
	mu           sync.Mutex
	orders       map[id.ID]procurement.PurchaseOrder
	transfers    map[id.ID]procurement.StockTransfer
	issuePrices  map[string]types.Money
	detailPrices map[id.ID]types.Money
}

var (
	_ procurement.Repository = (*Procurement)(nil)
	_ pricing.Source         = (*Procurement)(nil)
)

// NewProcurement creates an empty procurement store.
func NewProcurement() *Procurement {
	return &Procurement{
		orders:       map[id.ID]procurement.PurchaseOrder{},
		transfers:    map[id.ID]procurement.StockTransfer{},
		issuePrices:  map[string]types.Money{},
		detailPrices: map[id.ID]types.Money{},
	}
}

func copyOrder(po procurement.PurchaseOrder) procurement.PurchaseOrder {
	po.Lines = append([]procurement.PurchaseOrderLine(nil), po.Lines...)
	return po
}

// Snapshot implements Snapshotter.
func (p *Procurement) Snapshot() func() {
	p.mu.Lock()
	orders := make(map[id.ID]procurement.PurchaseOrder, len(p.orders))
	for k, po := range p.orders {
		orders[k] = copyOrder(po)
	}
	transfers := cloneMap(p.transfers)
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.orders, p.transfers = orders, transfers
		p.mu.Unlock()
	}
}

// PutOrder stores a purchase order; line and order ids are generated when nil.
func (p *Procurement) PutOrder(po procurement.PurchaseOrder) procurement.PurchaseOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id.IsNil(po.ID) {
		po.ID = id.New()
	}
	for i := range po.Lines {
		if id.IsNil(po.Lines[i].ID) {
			po.Lines[i].ID = id.New()
		}
		po.Lines[i].PurchaseOrderID = po.ID
	}
	p.orders[po.ID] = copyOrder(po)
	return copyOrder(po)
}

// Order returns a stored purchase order.
func (p *Procurement) Order(poID id.ID) procurement.PurchaseOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyOrder(p.orders[poID])
}

// PutTransfer stores a stock transfer.
func (p *Procurement) PutTransfer(t procurement.StockTransfer) procurement.StockTransfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	p.transfers[t.ID] = t
	return t
}

// Transfer returns a stored stock transfer.
func (p *Procurement) Transfer(transferID id.ID) procurement.StockTransfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transfers[transferID]
}

// PutIssuePrice registers a requisition issue price for a transfer number and product.
func (p *Procurement) PutIssuePrice(transferNumber string, productID id.ID, price types.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issuePrices[transferNumber+"/"+productID.String()] = price
}

// PutRequestPrice registers a purchase request detail estimate.
func (p *Procurement) PutRequestPrice(detailID id.ID, price types.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailPrices[detailID] = price
}

func (p *Procurement) GetPurchaseOrder(_ context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	po, ok := p.orders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID)
	}
	cp := copyOrder(po)
	return &cp, nil
}

func (p *Procurement) GetPurchaseOrderForUpdate(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return p.GetPurchaseOrder(ctx, poID)
}

func (p *Procurement) AddLineReceipt(_ context.Context, lineID id.ID, received, rejected types.Quantity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for poID, po := range p.orders {
		for i := range po.Lines {
			if po.Lines[i].ID != lineID {
				continue
			}
			po.Lines[i].ReceivedQuantity = (po.Lines[i].ReceivedQuantity + received).FloorZero()
			po.Lines[i].RejectedQuantity = (po.Lines[i].RejectedQuantity + rejected).FloorZero()
			p.orders[poID] = po
			return nil
		}
	}
	return apperror.NewNotFound("purchase order line", lineID)
}

func (p *Procurement) SetPurchaseOrderStatus(_ context.Context, poID id.ID, status procurement.POStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	po := p.orders[poID]
	po.Status = status
	p.orders[poID] = po
	return nil
}

func (p *Procurement) GetStockTransfer(_ context.Context, transferID id.ID) (*procurement.StockTransfer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.transfers[transferID]
	if !ok {
		return nil, apperror.NewNotFound("stock transfer", transferID)
	}
	return &t, nil
}

func (p *Procurement) MarkTransferReceived(_ context.Context, transferID id.ID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.transfers[transferID]
	if !ok || t.Status != procurement.TransferStatusInTransit {
		return false, nil
	}
	t.Status = procurement.TransferStatusReceived
	p.transfers[transferID] = t
	return true, nil
}

func (p *Procurement) RequisitionIssuePrice(_ context.Context, transferNumber string, productID id.ID) (types.Money, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.issuePrices[transferNumber+"/"+productID.String()]
	return price, ok, nil
}

func (p *Procurement) PurchaseOrderLinePrice(_ context.Context, lineID id.ID) (types.Money, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, po := range p.orders {
		for _, l := range po.Lines {
			if l.ID == lineID && !l.UnitPrice.IsZero() {
				return l.UnitPrice, true, nil
			}
		}
	}
	return types.Zero(), false, nil
}

func (p *Procurement) PurchaseRequestEstimatedPrice(_ context.Context, detailID id.ID) (types.Money, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.detailPrices[detailID]
	return price, ok, nil
}
