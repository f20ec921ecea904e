// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockgate/internal/core/entity"
	"stockgate/internal/core/id"
	"stockgate/internal/domain/registers/stock"
	"stockgate/internal/infrastructure/storage/postgres"
)

const (
	stockDetailsTable  = "reg_stock_details"
	stockBalancesTable = "reg_stock_balances"
)

var (
	stockDetailCols  = postgres.ExtractDBColumns[entity.StockDetail]()
	stockBalanceCols = postgres.ExtractDBColumns[entity.StockBalance]()
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateDetail appends a ledger entry.
func (r *StockRepo) CreateDetail(ctx context.Context, detail *entity.StockDetail) error {
	sql, args, err := r.builder.
		Insert(stockDetailsTable).
		SetMap(postgres.StructToMap(detail)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock detail: %w", err)
	}
	return nil
}

// GetDetailsByReference retrieves the entries booked under a document number.
func (r *StockRepo) GetDetailsByReference(ctx context.Context, referenceNo string) ([]entity.StockDetail, error) {
	sql, args, err := r.builder.
		Select(stockDetailCols...).
		From(stockDetailsTable).
		Where(squirrel.Eq{"reference_no": referenceNo}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var details []entity.StockDetail
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &details, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock details: %w", err)
	}
	return details, nil
}

// DeleteDetail removes a reverted entry.
func (r *StockRepo) DeleteDetail(ctx context.Context, detailID id.ID) error {
	sql, args, err := r.builder.
		Delete(stockDetailsTable).
		Where(squirrel.Eq{"id": detailID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete stock detail: %w", err)
	}
	return nil
}

func (r *StockRepo) selectBalance(key entity.BalanceKey) squirrel.SelectBuilder {
	return r.builder.
		Select(stockBalanceCols...).
		From(stockBalancesTable).
		Where(squirrel.Eq{
			"product_id":   key.ProductID,
			"warehouse_id": key.WarehouseID,
			"period":       entity.PeriodOf(key.Period),
		})
}

// getOne scans a single balance row; a missing row yields (nil, nil).
func (r *StockRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*entity.StockBalance, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balance entity.StockBalance
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &balance, nil
}

// GetBalance reads a balance row without locking.
func (r *StockRepo) GetBalance(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.getOne(ctx, r.selectBalance(key))
}

// GetBalanceForUpdate reads and locks a balance row.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.getOne(ctx, r.selectBalance(key).Suffix("FOR UPDATE"))
}

// GetLatestBalanceBefore returns the closest earlier period of the same product and warehouse.
func (r *StockRepo) GetLatestBalanceBefore(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	q := r.builder.
		Select(stockBalanceCols...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"product_id": key.ProductID, "warehouse_id": key.WarehouseID}).
		Where(squirrel.Lt{"period": entity.PeriodOf(key.Period)}).
		OrderBy("period DESC").
		Limit(1)
	return r.getOne(ctx, q)
}

// InsertBalanceIfAbsent opens a balance row; a concurrent opener wins silently.
func (r *StockRepo) InsertBalanceIfAbsent(ctx context.Context, balance *entity.StockBalance) error {
	data := postgres.StructToMap(balance)
	data["version"] = 1
	data["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.builder.
		Insert(stockBalancesTable).
		SetMap(data).
		Suffix("ON CONFLICT (product_id, warehouse_id, period) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock balance: %w", err)
	}
	return nil
}

// UpdateBalance writes the figures of a locked row.
func (r *StockRepo) UpdateBalance(ctx context.Context, balance *entity.StockBalance) error {
	sql, args, err := r.builder.
		Update(stockBalancesTable).
		Set("stock_awal", balance.StockAwal).
		Set("stock_in", balance.StockIn).
		Set("stock_out", balance.StockOut).
		Set("stock_akhir", balance.StockAkhir).
		Set("booked_stock", balance.BookedStock).
		Set("available_stock", balance.AvailableStock).
		Set("on_pr", balance.OnPR).
		Set("inventory_value", balance.InventoryValue).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"product_id":   balance.ProductID,
			"warehouse_id": balance.WarehouseID,
			"period":       balance.Period,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("stock balance %s/%s/%s does not exist",
			balance.ProductID, balance.WarehouseID, balance.Period.Format("2006-01"))
	}
	return nil
}

// ListBalances returns the rows of one period.
func (r *StockRepo) ListBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.
		Select(stockBalanceCols...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"period": filter.Period})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	q = q.OrderBy("warehouse_id", "product_id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock balances: %w", err)
	}
	return balances, nil
}

const refreshProductStockSQL = `
	UPDATE products
	SET stock_quantity = COALESCE((
			SELECT SUM(latest.stock_akhir)
			FROM (
				SELECT DISTINCT ON (warehouse_id) stock_akhir
				FROM reg_stock_balances
				WHERE product_id = $1
				ORDER BY warehouse_id, period DESC
			) latest
		), 0),
		updated_at = NOW()
	WHERE id = $1
`

// RefreshProductStock recomputes products.stock_quantity.
func (r *StockRepo) RefreshProductStock(ctx context.Context, productID id.ID) error {
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, refreshProductStockSQL, productID); err != nil {
		return fmt.Errorf("refresh product stock: %w", err)
	}
	return nil
}
