package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/bobotcho/wacommerce/internal/util"
	"github.com/jmoiron/sqlx"
)

// Enqueuer accepts dispatch jobs onto the durable queue. The job row and its
// outbox event are committed in one transaction; the relay ships the event
// to Kafka afterwards, so an accepted job is never lost.
type Enqueuer struct {
	db     *sqlx.DB
	jobs   repository.JobsRepository
	outbox repository.OutboxRepository
	topic  string
}

func NewEnqueuer(db *sqlx.DB, jobs repository.JobsRepository, outbox repository.OutboxRepository, topic string) *Enqueuer {
	return &Enqueuer{db: db, jobs: jobs, outbox: outbox, topic: topic}
}

// Enqueue persists the job with state=queued and returns its id immediately;
// execution happens out-of-band on the dispatch workers.
func (e *Enqueuer) Enqueue(ctx context.Context, campaignID, contentSID string, recipients []string, variables map[string]string) (string, error) {
	jobID := util.NewID()

	job := model.DispatchJob{
		ID:         jobID,
		CampaignID: campaignID,
		ContentSID: contentSID,
		Recipients: model.JSONStrings(recipients),
		Variables:  model.JSONMap(variables),
		State:      model.JobQueued,
	}

	env := model.JobEnvelope{JobID: jobID, CampaignID: campaignID}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal job envelope: %w", err)
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if err := e.jobs.InsertQueued(ctx, tx, job); err != nil {
		return "", fmt.Errorf("insert job queued: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, "dispatch_job", jobID, e.topic, payload); err != nil {
		return "", fmt.Errorf("insert outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return jobID, nil
}

// JobStatus is the caller-visible view of a job: its state, the live
// progress snapshot while running, and the terminal summary once done.
type JobStatus struct {
	JobID    string          `json:"job_id"`
	State    model.JobState  `json:"state"`
	Progress *model.Progress `json:"progress,omitempty"`
	Result   *model.Summary  `json:"result,omitempty"`
}

// StatusReader serves job status lookups from the job row plus the progress
// store.
type StatusReader struct {
	jobs     repository.JobsRepository
	progress *ProgressStore
}

func NewStatusReader(jobs repository.JobsRepository, progress *ProgressStore) *StatusReader {
	return &StatusReader{jobs: jobs, progress: progress}
}

// Status returns nil without error when the job does not exist.
func (r *StatusReader) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	st := &JobStatus{JobID: job.ID, State: job.State, Result: job.Summary}

	if job.State == model.JobRunning {
		p, err := r.progress.ReadSnapshot(ctx, jobID)
		if err == nil {
			st.Progress = p
		}
	}

	return st, nil
}
