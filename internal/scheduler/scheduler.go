package scheduler

import (
	"context"
	"time"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/dispatch"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	AutomationSpec string // default "*/5 * * * *"
	ApprovalSpec   string // default "0 * * * *"
}

// Scheduler fires the two periodic jobs: automation evaluation and
// template-approval polling. Each tick is idempotent and a tick is skipped
// while the previous one is still running.
type Scheduler struct {
	automations repository.AutomationsRepository
	templates   repository.TemplatesRepository
	gate        *gate.Gate
	resolver    *audience.Resolver
	dispatcher  *dispatch.Dispatcher
	channel     channel.Channel
	log         *zap.Logger
	cfg         Config

	cron *cron.Cron
}

func New(
	automations repository.AutomationsRepository,
	templates repository.TemplatesRepository,
	g *gate.Gate,
	resolver *audience.Resolver,
	dispatcher *dispatch.Dispatcher,
	ch channel.Channel,
	log *zap.Logger,
	cfg Config,
) *Scheduler {
	if cfg.AutomationSpec == "" {
		cfg.AutomationSpec = "*/5 * * * *"
	}
	if cfg.ApprovalSpec == "" {
		cfg.ApprovalSpec = "0 * * * *"
	}

	return &Scheduler{
		automations: automations,
		templates:   templates,
		gate:        g,
		resolver:    resolver,
		dispatcher:  dispatcher,
		channel:     ch,
		log:         log,
		cfg:         cfg,
	}
}

// Start registers both schedules and begins ticking. Returns after the cron
// runner is started; Stop blocks until in-flight ticks finish.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))

	if _, err := c.AddFunc(s.cfg.AutomationSpec, func() { s.RunAutomations(ctx) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(s.cfg.ApprovalSpec, func() { s.PollApprovals(ctx) }); err != nil {
		return err
	}

	c.Start()
	s.cron = c
	s.log.Info("scheduler started",
		zap.String("automations", s.cfg.AutomationSpec),
		zap.String("approvals", s.cfg.ApprovalSpec),
	)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) observeTick(name string, start time.Time) {
	metrics.SchedulerTickSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
