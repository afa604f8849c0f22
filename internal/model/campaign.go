package model

import "time"

type CampaignStatus string

const (
	CampaignDraft               CampaignStatus = "draft"
	CampaignSending             CampaignStatus = "sending"
	CampaignCompleted           CampaignStatus = "completed"
	CampaignCompletedWithErrors CampaignStatus = "completed_with_errors"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignSending, CampaignCompleted, CampaignCompletedWithErrors:
		return true
	}
	return false
}

// Campaign counters are monotonic within one dispatch run; only the
// dispatcher mutates status and counts after launch.
type Campaign struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	TemplateName   string         `db:"template_name"`
	Status         CampaignStatus `db:"status"`
	SentCount      int            `db:"sent_count"`
	DeliveredCount int            `db:"delivered_count"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}
