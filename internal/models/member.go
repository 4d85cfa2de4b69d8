package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Member is a registered association member. The token is the opaque
// secret embedded in the member's QR code; it never encodes identity.
type Member struct {
	bun.BaseModel `bun:"table:members"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Email      string    `bun:"email,nullzero" json:"email,omitempty"`
	ValidUntil string    `bun:"valid_until,nullzero" json:"valid_until,omitempty"`
	Token      string    `bun:"token,unique,notnull" json:"token"`
	Active     bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type CreateMemberRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ValidUntil string `json:"valid_until"`
}

type CreateMemberResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type ProlongRequest struct {
	ValidUntil string `json:"valid_until"`
}
