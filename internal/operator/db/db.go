package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"ms-vouchers/internal/models"
)

// DB holds the scan operator registry. Operators are display names only;
// the ledger records the name verbatim, so deleting an operator never
// touches past redemptions.
type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateOperator(ctx context.Context, op models.Operator) error {
	_, err := d.Bun.NewInsert().Model(&op).Exec(ctx)
	return err
}

func (d *DB) ListOperators(ctx context.Context) ([]models.Operator, error) {
	var ops []models.Operator
	err := d.Bun.NewSelect().
		Model(&ops).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (d *DB) DeleteOperator(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Operator)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
