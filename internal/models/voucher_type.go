package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VoucherType is a redeemable category scoped to one event, e.g. "drink"
// with max_uses=2 per member.
type VoucherType struct {
	bun.BaseModel `bun:"table:voucher_types"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	MaxUses   int       `bun:"max_uses,notnull,default:1" json:"max_uses"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"-"`
}

type CreateVoucherTypeRequest struct {
	EventID string `json:"event_id"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses"`
}
