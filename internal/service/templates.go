package service

import (
	"context"
	"fmt"

	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/bobotcho/wacommerce/internal/util"
	"go.uber.org/zap"
)

// TemplateService owns the outbound template lifecycle: registration with
// the channel, approval submission, single sends, and status lookups.
type TemplateService struct {
	templates repository.TemplatesRepository
	channel   channel.Channel
	gate      *gate.Gate
	log       *zap.Logger
}

func NewTemplateService(templates repository.TemplatesRepository, ch channel.Channel, g *gate.Gate, log *zap.Logger) *TemplateService {
	return &TemplateService{templates: templates, channel: ch, gate: g, log: log}
}

type CreateTemplateInput struct {
	Name        string
	DisplayName string
	Category    model.TemplateCategory
	Language    string
	Body        string
	Variables   []string
}

// Create registers the body with the channel, submits it for approval, and
// upserts the local row. A failed approval submission leaves the template in
// draft; the content SID is kept so it can be resubmitted.
func (s *TemplateService) Create(ctx context.Context, in CreateTemplateInput) (*model.Template, error) {
	contentSID, err := s.channel.CreateContent(ctx, in.Name, in.Body, in.Language, in.Variables)
	if err != nil {
		return nil, fmt.Errorf("create channel content: %w", err)
	}

	status := model.TemplatePending
	if err := s.channel.SubmitApproval(ctx, contentSID, in.Name, in.Category.String()); err != nil {
		s.log.Warn("submit template approval", zap.String("template", in.Name), zap.Error(err))
		status = model.TemplateDraft
	}

	t := model.Template{
		ID:          util.NewID(),
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Category:    in.Category.String(),
		Status:      status,
		Language:    in.Language,
		Body:        in.Body,
		Variables:   model.JSONStrings(in.Variables),
		ContentSID:  contentSID,
	}
	if err := s.templates.Upsert(ctx, t); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	s.log.Info("template created",
		zap.String("template", in.Name),
		zap.String("content_sid", contentSID),
		zap.String("status", status.String()),
	)
	return &t, nil
}

func (s *TemplateService) List(ctx context.Context) ([]model.Template, error) {
	return s.templates.List(ctx)
}

// SendOne sends an approved template to a single recipient.
func (s *TemplateService) SendOne(ctx context.Context, to, templateName string, variables map[string]string) (string, error) {
	auth, err := s.gate.Authorize(ctx, templateName)
	if err != nil {
		return "", err
	}
	return s.channel.SendTemplate(ctx, util.NormalizePhone(to), auth.ContentSID, variables)
}

// ApprovalStatus is the side-by-side view of local and channel status.
type ApprovalStatus struct {
	Name          string `json:"name"`
	LocalStatus   string `json:"local_status"`
	ChannelStatus string `json:"channel_status"`
	ContentSID    string `json:"content_sid,omitempty"`
}

// Status polls the channel for the template's approval verdict and syncs
// the local row when it changed.
func (s *TemplateService) Status(ctx context.Context, name string) (*ApprovalStatus, error) {
	t, err := s.templates.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, gate.ErrTemplateNotFound
	}
	if t.ContentSID == "" {
		return &ApprovalStatus{Name: name, LocalStatus: t.Status.String(), ChannelStatus: "no_sid"}, nil
	}

	raw, err := s.channel.FetchApprovalStatus(ctx, t.ContentSID)
	if err != nil {
		return nil, fmt.Errorf("fetch approval status: %w", err)
	}

	if status, ok := model.ParseTemplateStatus(raw); ok && status != t.Status {
		if err := s.templates.UpdateStatus(ctx, name, status); err != nil {
			s.log.Error("sync template status", zap.String("template", name), zap.Error(err))
		}
	}

	return &ApprovalStatus{
		Name:          name,
		LocalStatus:   t.Status.String(),
		ChannelStatus: raw,
		ContentSID:    t.ContentSID,
	}, nil
}
