package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Redemption is one committed use of a voucher type by a member at an
// event. Rows are immutable; the engine only ever appends. UseIndex is
// 1-based within the (member, event, voucher type) triple and carries a
// unique index so a racing duplicate insert fails at the storage layer.
type Redemption struct {
	bun.BaseModel `bun:"table:redemptions"`

	ID            string    `bun:"id,pk" json:"id"`
	MemberID      string    `bun:"member_id,notnull" json:"member_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	VoucherTypeID string    `bun:"voucher_type_id,notnull" json:"voucher_type_id"`
	UseIndex      int       `bun:"use_index,notnull" json:"use_index"`
	RedeemedBy    string    `bun:"redeemed_by,notnull" json:"redeemed_by"`
	RedeemedAt    time.Time `bun:"redeemed_at,notnull" json:"redeemed_at"`

	Member      *Member      `bun:"rel:belongs-to,join:member_id=id" json:"-"`
	Event       *Event       `bun:"rel:belongs-to,join:event_id=id" json:"-"`
	VoucherType *VoucherType `bun:"rel:belongs-to,join:voucher_type_id=id" json:"-"`
}

type RedeemRequest struct {
	Token         string `json:"token"`
	EventID       string `json:"event_id"`
	VoucherTypeID string `json:"voucher_type_id"`
	Operator      string `json:"volunteer"`
}

// RedeemResult is returned on a granted redemption.
type RedeemResult struct {
	MemberName  string    `json:"member_name"`
	VoucherName string    `json:"voucher_name"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

// LedgerEntry is the admin audit view of one redemption, joined with the
// display names of the rows it references.
type LedgerEntry struct {
	ID          string    `json:"id"`
	MemberName  string    `json:"member_name"`
	EventName   string    `json:"event_name"`
	VoucherName string    `json:"voucher_name"`
	RedeemedBy  string    `json:"redeemed_by"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}
