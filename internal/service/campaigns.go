package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/repository"
	"go.uber.org/zap"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// LaunchResult is returned to the caller immediately; send outcomes are only
// observable later through the job's progress and terminal result.
type LaunchResult struct {
	TaskID              string
	EstimatedRecipients int
}

// CampaignService validates a launch request and hands the bulk send to the
// job runtime. This is the synchronous/asynchronous boundary of the system.
type CampaignService struct {
	campaigns repository.CampaignsRepository
	gate      *gate.Gate
	resolver  *audience.Resolver
	enqueuer  *jobs.Enqueuer
	log       *zap.Logger
}

func NewCampaignService(
	campaigns repository.CampaignsRepository,
	g *gate.Gate,
	resolver *audience.Resolver,
	enqueuer *jobs.Enqueuer,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		gate:      g,
		resolver:  resolver,
		enqueuer:  enqueuer,
		log:       log,
	}
}

// Launch validates the campaign, template, and audience synchronously so
// that an invalid request is rejected before anything is enqueued, then
// persists the job and marks the campaign as sending.
func (s *CampaignService) Launch(ctx context.Context, campaignID, templateName string, segment audience.Segment, variables map[string]string) (LaunchResult, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("load campaign: %w", err)
	}
	if campaign == nil {
		return LaunchResult{}, ErrCampaignNotFound
	}

	auth, err := s.gate.Authorize(ctx, templateName)
	if err != nil {
		return LaunchResult{}, err
	}

	recipients, err := s.resolver.Resolve(ctx, segment)
	if err != nil {
		return LaunchResult{}, err
	}

	jobID, err := s.enqueuer.Enqueue(ctx, campaignID, auth.ContentSID, recipients, variables)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("enqueue dispatch job: %w", err)
	}

	if err := s.campaigns.MarkSending(ctx, campaignID); err != nil {
		// The job is already durable; the dispatcher will overwrite the
		// campaign state at its first checkpoint anyway.
		s.log.Warn("mark campaign sending", zap.String("campaign_id", campaignID), zap.Error(err))
	}

	s.log.Info("campaign dispatched",
		zap.String("campaign_id", campaignID),
		zap.String("job_id", jobID),
		zap.Int("recipients", len(recipients)),
	)

	return LaunchResult{TaskID: jobID, EstimatedRecipients: len(recipients)}, nil
}
