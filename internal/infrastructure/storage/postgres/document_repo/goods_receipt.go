package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/id"
	goodsreceipt "stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/infrastructure/storage/postgres"
)

const (
	goodsReceiptsTable     = "doc_goods_receipts"
	goodsReceiptItemsTable = "doc_goods_receipt_items"

	goodsReceiptNumberConstraint = "doc_goods_receipts_number_key"
)

var goodsReceiptItemCols = postgres.ExtractDBColumns[goodsreceipt.Item]()

// GoodsReceiptRepo implements goods_receipt.Repository.
type GoodsReceiptRepo struct {
	*BaseDocumentRepo[*goodsreceipt.GoodsReceipt]
}

var _ goodsreceipt.Repository = (*GoodsReceiptRepo)(nil)

// NewGoodsReceiptRepo creates a new goods receipt repository.
func NewGoodsReceiptRepo(txm *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			goodsReceiptsTable,
			goodsreceipt.EntityName,
			postgres.ExtractDBColumns[goodsreceipt.GoodsReceipt](),
			func() *goodsreceipt.GoodsReceipt { return &goodsreceipt.GoodsReceipt{} },
		),
	}
}

// Create inserts the header and its items.
func (r *GoodsReceiptRepo) Create(ctx context.Context, doc *goodsreceipt.GoodsReceipt) error {
	if err := r.Insert(ctx, doc); err != nil {
		if postgres.IsUniqueViolation(err, goodsReceiptNumberConstraint) {
			return apperror.NewDuplicateNumber(goodsreceipt.EntityName, doc.Number).WithCause(err)
		}
		return err
	}
	return r.insertItems(ctx, doc.Items)
}

// GetByID retrieves a goods receipt with items.
func (r *GoodsReceiptRepo) GetByID(ctx context.Context, docID id.ID) (*goodsreceipt.GoodsReceipt, error) {
	return r.get(ctx, docID, false)
}

// GetForUpdate retrieves a goods receipt with the header row locked.
func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, docID id.ID) (*goodsreceipt.GoodsReceipt, error) {
	return r.get(ctx, docID, true)
}

func (r *GoodsReceiptRepo) get(ctx context.Context, docID id.ID, forUpdate bool) (*goodsreceipt.GoodsReceipt, error) {
	doc, err := r.GetHeader(ctx, docID, forUpdate)
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

// Update writes header and items with a version check.
func (r *GoodsReceiptRepo) Update(ctx context.Context, doc *goodsreceipt.GoodsReceipt) error {
	version, err := r.UpdateHeader(ctx, doc)
	if err != nil {
		return err
	}

	if _, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+goodsReceiptItemsTable+" WHERE goods_receipt_id = $1", doc.ID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	if err := r.insertItems(ctx, doc.Items); err != nil {
		return err
	}

	doc.Version = version
	return nil
}

// Delete removes the receipt; items cascade.
func (r *GoodsReceiptRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.DeleteHeader(ctx, docID)
}

func (r *GoodsReceiptRepo) getItems(ctx context.Context, docID id.ID) ([]goodsreceipt.Item, error) {
	sql, args, err := r.Builder().
		Select(goodsReceiptItemCols...).
		From(goodsReceiptItemsTable).
		Where(squirrel.Eq{"goods_receipt_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []goodsreceipt.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

func (r *GoodsReceiptRepo) insertItems(ctx context.Context, items []goodsreceipt.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(goodsReceiptItemsTable).
		Columns(goodsReceiptItemCols...)

	for i := range items {
		row := postgres.StructToMap(&items[i])
		values := make([]any, 0, len(goodsReceiptItemCols))
		for _, col := range goodsReceiptItemCols {
			values = append(values, row[col])
		}
		q = q.Values(values...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}
