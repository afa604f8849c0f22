package model

import "time"

type MessageRole string

const (
	RoleCustomer MessageRole = "customer"
	RoleAgent    MessageRole = "agent"
)

func (r MessageRole) String() string { return string(r) }

// Message is one entry in a conversation thread.
type Message struct {
	ID             string      `db:"id"`
	ConversationID string      `db:"conversation_id"`
	ShopID         string      `db:"shop_id"`
	Role           MessageRole `db:"role"`
	Content        string      `db:"content"`
	Metadata       JSONMap     `db:"metadata"`
	CreatedAt      time.Time   `db:"created_at"`
}

// AILog is one audit record for a generated assistant reply.
type AILog struct {
	ID             string    `db:"id"`
	ShopID         string    `db:"shop_id"`
	ConversationID string    `db:"conversation_id"`
	Input          string    `db:"input"`
	Output         string    `db:"output"`
	Metrics        JSONMap   `db:"metrics"`
	CreatedAt      time.Time `db:"created_at"`
}
