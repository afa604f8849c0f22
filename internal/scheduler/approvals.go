package scheduler

import (
	"context"
	"time"

	"github.com/bobotcho/wacommerce/internal/model"
	"go.uber.org/zap"
)

// PollApprovals asks the channel for a verdict on every pending template
// that has a content SID and syncs the stored status when it changed.
// Templates are polled independently; one failure never blocks the rest.
// Returns (checked, updated) counts.
func (s *Scheduler) PollApprovals(ctx context.Context) (int, int) {
	defer s.observeTick("approvals", time.Now())

	pending, err := s.templates.ListPendingWithContentSID(ctx)
	if err != nil {
		s.log.Error("list pending templates", zap.Error(err))
		return 0, 0
	}
	if len(pending) == 0 {
		return 0, 0
	}

	updated := 0
	for _, t := range pending {
		log := s.log.With(zap.String("template", t.Name))

		raw, err := s.channel.FetchApprovalStatus(ctx, t.ContentSID)
		if err != nil {
			log.Warn("fetch approval status", zap.Error(err))
			continue
		}

		status, ok := model.ParseTemplateStatus(raw)
		if !ok || status == model.TemplatePending {
			continue
		}

		if err := s.templates.UpdateStatus(ctx, t.Name, status); err != nil {
			log.Error("update template status", zap.Error(err))
			continue
		}
		updated++
		log.Info("template status updated", zap.String("status", status.String()))
	}

	s.log.Info("approval tick done", zap.Int("checked", len(pending)), zap.Int("updated", updated))
	return len(pending), updated
}
