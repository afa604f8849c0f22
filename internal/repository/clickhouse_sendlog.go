package repository

import (
	"context"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// SendLogRepository records per-recipient dispatch outcomes in ClickHouse.
// The log is the source for reports and for operator backfill of the failed
// subset of a run; the dispatch path treats writes as best-effort.
type SendLogRepository interface {
	InsertBatch(ctx context.Context, outcomes []model.SendOutcome) error
	ListByJob(ctx context.Context, jobID, outcome string, limit, offset int) ([]model.SendOutcome, error)
}

type sendLogRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewSendLogRepository(ch *sqlx.DB) SendLogRepository {
	return &sendLogRepository{ch: ch}
}

func (r *sendLogRepository) InsertBatch(ctx context.Context, outcomes []model.SendOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO wacommerce.send_log
		    (job_id, campaign_id, phone, message_sid, outcome, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx,
			o.JobID, o.CampaignID, o.Phone, o.MessageSID, o.Outcome, o.Error, o.SentAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *sendLogRepository) ListByJob(ctx context.Context, jobID, outcome string, limit, offset int) ([]model.SendOutcome, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT job_id, campaign_id, phone, message_sid, outcome, error, sent_at
		FROM wacommerce.send_log
		WHERE job_id = ?
	`
	args := []any{jobID}

	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome)
	}

	q += " ORDER BY sent_at LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.SendOutcome
	err := r.ch.SelectContext(ctx, &rows, q, args...)
	return rows, err
}
