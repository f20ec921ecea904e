package memstore

import (
	"context"
	"sync"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/id"
	goodsreceipt "stockgate/internal/domain/documents/goods_receipt"
)

// GoodsReceipts implements goods_receipt.Repository.
type GoodsReceipts struct {
	mu   sync.Mutex
	docs map[id.ID]goodsreceipt.GoodsReceipt
}

var _ goodsreceipt.Repository = (*GoodsReceipts)(nil)

// NewGoodsReceipts creates an empty goods receipt store.
func NewGoodsReceipts() *GoodsReceipts {
	return &GoodsReceipts{docs: map[id.ID]goodsreceipt.GoodsReceipt{}}
}

func copyReceipt(doc goodsreceipt.GoodsReceipt) goodsreceipt.GoodsReceipt {
	doc.Items = append([]goodsreceipt.Item(nil), doc.Items...)
	return doc
}

// Snapshot implements Snapshotter.
func (r *GoodsReceipts) Snapshot() func() {
	r.mu.Lock()
	docs := make(map[id.ID]goodsreceipt.GoodsReceipt, len(r.docs))
	for k, doc := range r.docs {
		docs[k] = copyReceipt(doc)
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.docs = docs
		r.mu.Unlock()
	}
}

// Len returns the number of stored receipts.
func (r *GoodsReceipts) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *GoodsReceipts) Create(_ context.Context, doc *goodsreceipt.GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.Number == doc.Number {
			return apperror.NewDuplicateNumber(goodsreceipt.EntityName, doc.Number)
		}
	}
	r.docs[doc.ID] = copyReceipt(*doc)
	return nil
}

func (r *GoodsReceipts) GetByID(_ context.Context, docID id.ID) (*goodsreceipt.GoodsReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound(goodsreceipt.EntityName, docID)
	}
	cp := copyReceipt(doc)
	return &cp, nil
}

func (r *GoodsReceipts) GetForUpdate(ctx context.Context, docID id.ID) (*goodsreceipt.GoodsReceipt, error) {
	return r.GetByID(ctx, docID)
}

func (r *GoodsReceipts) Update(_ context.Context, doc *goodsreceipt.GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound(goodsreceipt.EntityName, doc.ID)
	}
	if stored.Version != doc.Version {
		return apperror.NewConcurrentModification(goodsreceipt.EntityName, doc.ID)
	}
	doc.Version++
	r.docs[doc.ID] = copyReceipt(*doc)
	return nil
}

func (r *GoodsReceipts) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, docID)
	return nil
}

func (r *GoodsReceipts) NumberExists(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.Number == number {
			return true, nil
		}
	}
	return false, nil
}
