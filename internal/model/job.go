package model

import "time"

type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

func (s JobState) String() string { return string(s) }

func (s JobState) Valid() bool {
	switch s {
	case JobQueued, JobRunning, JobSucceeded, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether no further state transition is possible.
func (s JobState) Terminal() bool { return s == JobSucceeded || s == JobFailed }

// DispatchJob is one bulk-send execution unit. The recipient set is resolved
// and deduplicated at enqueue time and immutable afterwards; CampaignID is
// empty for automation-driven dispatches.
type DispatchJob struct {
	ID         string      `db:"id"`
	CampaignID string      `db:"campaign_id"`
	ContentSID string      `db:"content_sid"`
	Recipients JSONStrings `db:"recipients"`
	Variables  JSONMap     `db:"variables"`
	State      JobState    `db:"state"`
	Summary    *Summary    `db:"-"`
	CreatedAt  time.Time   `db:"created_at"`
	StartedAt  *time.Time  `db:"started_at"`
	FinishedAt *time.Time  `db:"finished_at"`
}

// Summary is the aggregate outcome of a dispatch run. At completion
// Sent == Total and Delivered + Failed == Sent.
type Summary struct {
	Sent      int            `json:"sent"`
	Delivered int            `json:"delivered"`
	Failed    int            `json:"failed"`
	Total     int            `json:"total"`
	Status    CampaignStatus `json:"status"`
}

// Progress is the live snapshot published while a job is running.
type Progress struct {
	Sent      int       `json:"sent"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobEnvelope is the payload published to Kafka for one enqueued job. The
// durable job row is the source of truth; the envelope only points at it.
type JobEnvelope struct {
	JobID      string `json:"job_id"`
	CampaignID string `json:"campaign_id,omitempty"`
}

// SendOutcome is one per-recipient result recorded in the send log.
type SendOutcome struct {
	JobID      string    `db:"job_id" json:"job_id"`
	CampaignID string    `db:"campaign_id" json:"campaign_id"`
	Phone      string    `db:"phone" json:"phone"`
	MessageSID string    `db:"message_sid" json:"message_sid"`
	Outcome    string    `db:"outcome" json:"outcome"` // delivered|failed
	Error      string    `db:"error" json:"error,omitempty"`
	SentAt     time.Time `db:"sent_at" json:"sent_at"`
}
