package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"

	"ms-vouchers/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ErrTokenCollision reports that an insert hit the unique token index.
// The caller regenerates the token and retries.
type tokenCollisionError struct{ cause error }

func (e *tokenCollisionError) Error() string { return "token collision: " + e.cause.Error() }

func IsTokenCollision(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*tokenCollisionError); ok {
		return true
	}
	return false
}

// CreateMember inserts a new member row. A collision on the unique token
// index is surfaced distinctly so the service layer can regenerate.
func (d *DB) CreateMember(ctx context.Context, member models.Member) error {
	_, err := d.Bun.NewInsert().Model(&member).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return &tokenCollisionError{cause: err}
	}
	return err
}

func (d *DB) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := d.Bun.NewSelect().
		Model(&member).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (d *DB) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	var member models.Member
	err := d.Bun.NewSelect().
		Model(&member).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (d *DB) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := d.Bun.NewSelect().
		Model(&members).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateValidUntil overwrites the validity date. Past redemptions are
// untouched; the ledger is historical fact.
func (d *DB) UpdateValidUntil(ctx context.Context, id, validUntil string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Member)(nil)).
		Set("valid_until = ?", validUntil).
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

func (d *DB) SetActive(ctx context.Context, id string, active bool) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Member)(nil)).
		Set("active = ?", active).
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

// DeleteMember removes a member and its ledger entries in one
// transaction, so no orphaned rows keep counting against quotas. The
// schema's ON DELETE CASCADE backs this up in production; the explicit
// deletes keep the behavior identical on test databases.
func (d *DB) DeleteMember(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Redemption)(nil)).
			Where("member_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Member)(nil)).
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

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
