package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// CampaignsRepository defines persistence for the campaigns table. After
// launch only the dispatcher writes status and counter fields.
type CampaignsRepository interface {
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	MarkSending(ctx context.Context, id string) error
	UpdateCounts(ctx context.Context, id string, sent, delivered int) error
	Finish(ctx context.Context, id string, status model.CampaignStatus, sent, delivered int) error
}

type CampaignsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCampaignsRepository(db *sqlx.DB) *CampaignsRepositoryImpl {
	return &CampaignsRepositoryImpl{db: db}
}

var _ CampaignsRepository = (*CampaignsRepositoryImpl)(nil)

func (r *CampaignsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, template_name, status, sent_count, delivered_count, created_at, updated_at
		  FROM campaigns
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

// MarkSending flips the campaign into the sending state and resets its
// counters for the new run.
func (r *CampaignsRepositoryImpl) MarkSending(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET status = 'sending', sent_count = 0, delivered_count = 0, updated_at = NOW()
		 WHERE id = ?
	`, id)
	return err
}

// UpdateCounts is the dispatcher's checkpoint write. Counters only grow
// within a run, so a plain overwrite preserves monotonicity.
func (r *CampaignsRepositoryImpl) UpdateCounts(ctx context.Context, id string, sent, delivered int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET sent_count = ?, delivered_count = ?, updated_at = NOW()
		 WHERE id = ?
	`, sent, delivered, id)
	return err
}

func (r *CampaignsRepositoryImpl) Finish(ctx context.Context, id string, status model.CampaignStatus, sent, delivered int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET status = ?, sent_count = ?, delivered_count = ?, updated_at = NOW()
		 WHERE id = ?
	`, status.String(), sent, delivered, id)
	return err
}
