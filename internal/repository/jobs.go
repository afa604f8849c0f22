package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// JobsRepository defines persistence for dispatch_jobs. A job is claimed by
// exactly one worker via the compare-and-set in MarkRunning; once terminal it
// never transitions again.
type JobsRepository interface {
	// InsertQueued writes a new job row. If tx is nil, it will open/commit
	// an internal transaction; otherwise it uses the given tx.
	InsertQueued(ctx context.Context, tx *sqlx.Tx, job model.DispatchJob) error
	// MarkRunning claims a queued job. Returns false when the job was
	// already claimed, finished, or does not exist.
	MarkRunning(ctx context.Context, id string) (bool, error)
	MarkFinished(ctx context.Context, id string, state model.JobState, summary model.Summary) error
	GetByID(ctx context.Context, id string) (*model.DispatchJob, error)
}

type JobsRepositoryImpl struct {
	db *sqlx.DB
}

func NewJobsRepository(db *sqlx.DB) *JobsRepositoryImpl {
	return &JobsRepositoryImpl{db: db}
}

var _ JobsRepository = (*JobsRepositoryImpl)(nil)

func (r *JobsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

func (r *JobsRepositoryImpl) InsertQueued(ctx context.Context, tx *sqlx.Tx, job model.DispatchJob) error {
	const q = `
		INSERT INTO dispatch_jobs
		    (id, campaign_id, content_sid, recipients, variables, state, created_at)
		VALUES
		    (?,  ?,           ?,           ?,          ?,         'queued', NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			job.ID, job.CampaignID, job.ContentSID, job.Recipients, job.Variables,
		)
		return err
	})
}

func (r *JobsRepositoryImpl) MarkRunning(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dispatch_jobs
		   SET state = 'running', started_at = NOW()
		 WHERE id = ? AND state = 'queued'
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *JobsRepositoryImpl) MarkFinished(ctx context.Context, id string, state model.JobState, summary model.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE dispatch_jobs
		   SET state = ?, summary = ?, finished_at = NOW()
		 WHERE id = ? AND state = 'running'
	`, state.String(), payload, id)
	return err
}

func (r *JobsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.DispatchJob, error) {
	var row struct {
		model.DispatchJob
		RawSummary sql.NullString `db:"summary"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, campaign_id, content_sid, recipients, variables, state, summary, created_at, started_at, finished_at
		  FROM dispatch_jobs
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job := row.DispatchJob
	if row.RawSummary.Valid && row.RawSummary.String != "" {
		var s model.Summary
		if err := json.Unmarshal([]byte(row.RawSummary.String), &s); err != nil {
			return nil, err
		}
		job.Summary = &s
	}
	return &job, nil
}
