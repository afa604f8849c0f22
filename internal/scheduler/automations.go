package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/util"
	"go.uber.org/zap"
)

// RunAutomations evaluates every active automation once. Per-automation
// failures are isolated: one broken rule is logged and the tick moves on.
// Returns (checked, executed) counts.
func (s *Scheduler) RunAutomations(ctx context.Context) (int, int) {
	defer s.observeTick("automations", time.Now())

	automations, err := s.automations.ListActive(ctx)
	if err != nil {
		s.log.Error("list active automations", zap.Error(err))
		return 0, 0
	}
	if len(automations) == 0 {
		return 0, 0
	}

	executed := 0
	for _, a := range automations {
		if s.runOne(ctx, a) {
			executed++
		}
	}

	s.log.Info("automation tick done", zap.Int("checked", len(automations)), zap.Int("executed", executed))
	return len(automations), executed
}

// runOne reports whether the automation actually dispatched. The executions
// counter is bumped exactly once per dispatch attempt, never per recipient,
// and not at all when the audience is empty.
func (s *Scheduler) runOne(ctx context.Context, a model.Automation) bool {
	log := s.log.With(zap.String("automation_id", a.ID), zap.String("automation", a.Name))

	if a.TemplateName == "" || !a.TriggerType.Valid() {
		log.Warn("automation misconfigured, skipping", zap.String("trigger", a.TriggerType.String()))
		return false
	}

	auth, err := s.gate.Authorize(ctx, a.TemplateName)
	if err != nil {
		log.Warn("template not dispatchable, skipping", zap.String("template", a.TemplateName), zap.Error(err))
		return false
	}

	segment := audience.SegmentForTrigger(a.TriggerType)
	recipients, err := s.resolver.Resolve(ctx, segment)
	if err != nil {
		if !errors.Is(err, audience.ErrEmptyAudience) {
			log.Error("resolve audience", zap.String("segment", segment.String()), zap.Error(err))
		}
		return false
	}

	// Runs synchronously within the tick; the dispatcher's pacing bounds
	// the tick duration, and SkipIfStillRunning covers overruns.
	job := model.DispatchJob{
		ID:         util.NewID(),
		ContentSID: auth.ContentSID,
		Recipients: model.JSONStrings(recipients),
	}
	summary := s.dispatcher.Run(ctx, job)

	if err := s.automations.IncrementExecutions(ctx, a.ID); err != nil {
		log.Error("increment executions", zap.Error(err))
	}

	log.Info("automation executed",
		zap.String("segment", segment.String()),
		zap.Int("recipients", summary.Total),
		zap.Int("failed", summary.Failed),
	)
	return true
}
