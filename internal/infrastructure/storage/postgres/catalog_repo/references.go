// Package catalog_repo checks the reference catalogs (products, warehouses, users).
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockgate/internal/core/id"
	goodsreceipt "stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/infrastructure/storage/postgres"
)

// ReferenceRepo implements goods_receipt.References.
type ReferenceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ goodsreceipt.References = (*ReferenceRepo)(nil)

// NewReferenceRepo creates a reference repository.
func NewReferenceRepo(txm *postgres.TxManager) *ReferenceRepo {
	return &ReferenceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ReferenceRepo) exists(ctx context.Context, table string, entityID id.ID) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(table).
		Where(squirrel.Eq{"id": entityID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var ok bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return ok, nil
}

// WarehouseExists reports whether the warehouse is stored.
func (r *ReferenceRepo) WarehouseExists(ctx context.Context, warehouseID id.ID) (bool, error) {
	return r.exists(ctx, "warehouses", warehouseID)
}

// UserExists reports whether the user is stored and active.
func (r *ReferenceRepo) UserExists(ctx context.Context, userID id.ID) (bool, error) {
	return r.exists(ctx, "users", userID)
}

// MissingProducts returns the ids that have no product row.
func (r *ReferenceRepo) MissingProducts(ctx context.Context, productIDs []id.ID) ([]id.ID, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder.
		Select("id").
		From("products").
		Where(squirrel.Eq{"id": productIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	known := make(map[id.ID]struct{}, len(found))
	for _, pid := range found {
		known[pid] = struct{}{}
	}
	var missing []id.ID
	for _, pid := range productIDs {
		if _, ok := known[pid]; !ok {
			missing = append(missing, pid)
		}
	}
	return missing, nil
}
