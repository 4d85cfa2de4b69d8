package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"ms-vouchers/internal/models"
	"ms-vouchers/internal/redemption"
)

type DB struct {
	Bun *bun.DB
}

// appendAttempts bounds how often AppendWithQuota re-runs its transaction
// after losing a use_index race to a concurrent redeemer.
const appendAttempts = 3

// AppendWithQuota commits one redemption for rec's (member, event,
// voucher type) triple iff fewer than maxUses are already recorded. The
// count and the insert run inside a single transaction, and the unique
// index on (member_id, event_id, voucher_type_id, use_index) turns any
// concurrent duplicate into a constraint violation, so the ledger can
// never exceed the quota no matter how many callers race.
func (d *DB) AppendWithQuota(ctx context.Context, rec models.Redemption, maxUses int) error {
	for attempt := 0; attempt < appendAttempts; attempt++ {
		err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			count, err := tx.NewSelect().
				Model((*models.Redemption)(nil)).
				Where("member_id = ?", rec.MemberID).
				Where("event_id = ?", rec.EventID).
				Where("voucher_type_id = ?", rec.VoucherTypeID).
				Count(ctx)
			if err != nil {
				return err
			}
			if count >= maxUses {
				return redemption.ErrQuotaExceeded
			}
			rec.UseIndex = count + 1
			_, err = tx.NewInsert().Model(&rec).Exec(ctx)
			return err
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, redemption.ErrQuotaExceeded) {
			return err
		}
		if isUniqueViolation(err) {
			// Lost the race for this use_index; recount and try again.
			continue
		}
		return fmt.Errorf("%w: %v", redemption.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: gave up after %d contended attempts", redemption.ErrStoreUnavailable, appendAttempts)
}

// LastRedemption returns the most recent record for the triple, ordered
// by redeemed_at descending with id as the insertion-order tiebreak.
func (d *DB) LastRedemption(ctx context.Context, memberID, eventID, voucherTypeID string) (*models.Redemption, error) {
	var rec models.Redemption
	err := d.Bun.NewSelect().
		Model(&rec).
		Where("member_id = ?", memberID).
		Where("event_id = ?", eventID).
		Where("voucher_type_id = ?", voucherTypeID).
		Order("redeemed_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRedemptions returns the audit trail, most recent first, joined with
// the display names the admin screen shows. eventID filters when non-empty.
func (d *DB) ListRedemptions(ctx context.Context, eventID string) ([]models.LedgerEntry, error) {
	var recs []models.Redemption
	q := d.Bun.NewSelect().
		Model(&recs).
		Relation("Member").
		Relation("Event").
		Relation("VoucherType").
		Order("redemption.redeemed_at DESC", "redemption.id DESC").
		Limit(500)
	if eventID != "" {
		q = q.Where("redemption.event_id = ?", eventID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	entries := make([]models.LedgerEntry, 0, len(recs))
	for _, r := range recs {
		entry := models.LedgerEntry{
			ID:         r.ID,
			RedeemedBy: r.RedeemedBy,
			RedeemedAt: r.RedeemedAt,
		}
		if r.Member != nil {
			entry.MemberName = r.Member.Name
		}
		if r.Event != nil {
			entry.EventName = r.Event.Name
		}
		if r.VoucherType != nil {
			entry.VoucherName = r.VoucherType.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteRedemption removes one record by id. Admin correction only; the
// engine itself never deletes.
func (d *DB) DeleteRedemption(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Redemption)(nil)).
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

// CountRedemptions reports the committed use count for a triple.
func (d *DB) CountRedemptions(ctx context.Context, memberID, eventID, voucherTypeID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Redemption)(nil)).
		Where("member_id = ?", memberID).
		Where("event_id = ?", eventID).
		Where("voucher_type_id = ?", voucherTypeID).
		Count(ctx)
}

// isUniqueViolation matches the duplicate-key errors of the drivers in
// play (lib/pq in production, the sqlite shim in tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: redemptions")
}
