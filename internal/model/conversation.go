package model

import (
	"database/sql"
	"time"
)

// Conversation is one customer thread on the channel; audience segments are
// resolved from its activity timestamps.
type Conversation struct {
	ID            string       `db:"id"`
	ShopID        string       `db:"shop_id"`
	CustomerPhone string       `db:"customer_phone"`
	Status        string       `db:"status"` // active|closed
	LastMessageAt sql.NullTime `db:"last_message_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}
