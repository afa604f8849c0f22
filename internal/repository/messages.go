package repository

import (
	"context"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// MessagesRepository persists conversation messages and AI audit logs.
type MessagesRepository interface {
	Insert(ctx context.Context, m model.Message) error
	ListRecent(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	InsertAILog(ctx context.Context, l model.AILog) error
}

type MessagesRepositoryImpl struct {
	db *sqlx.DB
}

func NewMessagesRepository(db *sqlx.DB) *MessagesRepositoryImpl {
	return &MessagesRepositoryImpl{db: db}
}

var _ MessagesRepository = (*MessagesRepositoryImpl)(nil)

func (r *MessagesRepositoryImpl) Insert(ctx context.Context, m model.Message) error {
	const q = `
		INSERT INTO messages
		    (id, conversation_id, shop_id, role, content, metadata, created_at)
		VALUES
		    (?,  ?,               ?,       ?,    ?,       ?,        NOW())
	`
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.ConversationID, m.ShopID, m.Role.String(), m.Content, m.Metadata,
	)
	return err
}

// ListRecent returns up to limit messages for a conversation, oldest first.
func (r *MessagesRepositoryImpl) ListRecent(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	var ms []model.Message
	err := r.db.SelectContext(ctx, &ms, `
		SELECT id, conversation_id, shop_id, role, content, metadata, created_at
		  FROM (
			SELECT id, conversation_id, shop_id, role, content, metadata, created_at
			  FROM messages
			 WHERE conversation_id = ?
			 ORDER BY created_at DESC
			 LIMIT ?
		  ) latest
		 ORDER BY created_at ASC
	`, conversationID, limit)
	return ms, err
}

func (r *MessagesRepositoryImpl) InsertAILog(ctx context.Context, l model.AILog) error {
	const q = `
		INSERT INTO ai_logs
		    (id, shop_id, conversation_id, input, output, metrics, created_at)
		VALUES
		    (?,  ?,       ?,               ?,     ?,      ?,       NOW())
	`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.ShopID, l.ConversationID, l.Input, l.Output, l.Metrics,
	)
	return err
}
