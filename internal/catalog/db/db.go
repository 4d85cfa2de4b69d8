package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"ms-vouchers/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent removes the event, its voucher types and its redemptions in
// one transaction so no dangling ledger rows keep counting against
// quotas for a catalog entry that no longer exists.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Redemption)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.VoucherType)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (d *DB) CreateVoucherType(ctx context.Context, voucher models.VoucherType) error {
	_, err := d.Bun.NewInsert().Model(&voucher).Exec(ctx)
	return err
}

// GetVoucherType resolves a voucher type under its owning event; a
// voucher id paired with the wrong event is not found.
func (d *DB) GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error) {
	var voucher models.VoucherType
	err := d.Bun.NewSelect().
		Model(&voucher).
		Where("id = ?", voucherTypeID).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (d *DB) ListVoucherTypes(ctx context.Context, eventID string) ([]models.VoucherType, error) {
	var vouchers []models.VoucherType
	err := d.Bun.NewSelect().
		Model(&vouchers).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

// DeleteVoucherType cascades to the redemptions recorded against it.
func (d *DB) DeleteVoucherType(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Redemption)(nil)).
			Where("voucher_type_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.VoucherType)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}
