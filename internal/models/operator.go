package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Operator is a field volunteer allowed to scan tokens at an event.
type Operator struct {
	bun.BaseModel `bun:"table:operators"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
