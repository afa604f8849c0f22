package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// ConversationsRepository reads customer conversation threads; the audience
// resolver builds its segments from the phone-listing queries.
type ConversationsRepository interface {
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	ListAllPhones(ctx context.Context) ([]string, error)
	ListActivePhonesSince(ctx context.Context, cutoff time.Time) ([]string, error)
	ListInactivePhonesBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	ListPhonesCreatedSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

type ConversationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewConversationsRepository(db *sqlx.DB) *ConversationsRepositoryImpl {
	return &ConversationsRepositoryImpl{db: db}
}

var _ ConversationsRepository = (*ConversationsRepositoryImpl)(nil)

func (r *ConversationsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.GetContext(ctx, &c, `
		SELECT id, shop_id, customer_phone, status, last_message_at, created_at, updated_at
		  FROM conversations
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationsRepositoryImpl) ListAllPhones(ctx context.Context) ([]string, error) {
	var phones []string
	err := r.db.SelectContext(ctx, &phones, `
		SELECT customer_phone FROM conversations
	`)
	return phones, err
}

func (r *ConversationsRepositoryImpl) ListActivePhonesSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	var phones []string
	err := r.db.SelectContext(ctx, &phones, `
		SELECT customer_phone FROM conversations
		 WHERE status = 'active' AND last_message_at >= ?
	`, cutoff)
	return phones, err
}

func (r *ConversationsRepositoryImpl) ListInactivePhonesBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var phones []string
	err := r.db.SelectContext(ctx, &phones, `
		SELECT customer_phone FROM conversations
		 WHERE last_message_at < ?
	`, cutoff)
	return phones, err
}

func (r *ConversationsRepositoryImpl) ListPhonesCreatedSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	var phones []string
	err := r.db.SelectContext(ctx, &phones, `
		SELECT customer_phone FROM conversations
		 WHERE created_at >= ?
	`, cutoff)
	return phones, err
}
