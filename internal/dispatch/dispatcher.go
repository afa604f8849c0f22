package dispatch

import (
	"context"
	"time"

	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/model"
	"go.uber.org/zap"
)

// CampaignWriter receives the dispatcher's checkpoint and terminal writes
// for the owning campaign.
type CampaignWriter interface {
	UpdateCounts(ctx context.Context, id string, sent, delivered int) error
	Finish(ctx context.Context, id string, status model.CampaignStatus, sent, delivered int) error
}

// ProgressWriter publishes live progress snapshots for a running job.
type ProgressWriter interface {
	WriteSnapshot(ctx context.Context, jobID string, p model.Progress) error
}

// SendLogWriter records per-recipient outcomes; writes are best-effort.
type SendLogWriter interface {
	InsertBatch(ctx context.Context, outcomes []model.SendOutcome) error
}

type Config struct {
	// PaceInterval is the minimum gap between two initiated sends. The
	// channel's limit is strict and bursts are rejected outright, so this
	// is fixed-interval pacing, not a token bucket.
	PaceInterval time.Duration
	// CheckpointEvery bounds both the progress lost on a crash and the
	// store write amplification (total/N writes instead of total).
	CheckpointEvery int
	// Kind labels metrics: campaign | automation.
	Kind string
}

// Dispatcher drives one bulk send through the channel under the global
// per-job rate ceiling. Recipients are processed strictly sequentially in
// input order; one recipient's failure never aborts the run.
type Dispatcher struct {
	channel   channel.Channel
	campaigns CampaignWriter
	progress  ProgressWriter
	sendLog   SendLogWriter
	log       *zap.Logger
	cfg       Config
}

func NewDispatcher(
	ch channel.Channel,
	campaigns CampaignWriter,
	progress ProgressWriter,
	sendLog SendLogWriter,
	log *zap.Logger,
	cfg Config,
) *Dispatcher {
	if cfg.PaceInterval <= 0 {
		cfg.PaceInterval = time.Second
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 10
	}
	if cfg.Kind == "" {
		cfg.Kind = "campaign"
	}

	return &Dispatcher{
		channel:   ch,
		campaigns: campaigns,
		progress:  progress,
		sendLog:   sendLog,
		log:       log,
		cfg:       cfg,
	}
}

// Run executes the job to completion and returns the aggregate summary.
// Errors from the store or the channel degrade to recorded failures; the
// run itself only stops early when ctx is cancelled, and even then the
// summary reflects every recipient processed so far.
func (d *Dispatcher) Run(ctx context.Context, job model.DispatchJob) model.Summary {
	var (
		sent      int
		delivered int
		failed    int
		total     = len(job.Recipients)
	)

	log := d.log.With(zap.String("job_id", job.ID), zap.String("campaign_id", job.CampaignID))
	log.Info("bulk send starting", zap.Int("recipients", total))

	var failedRecipients []string
	var outcomes []model.SendOutcome

	for i, phone := range job.Recipients {
		// One send initiated per pace interval, globally across the job.
		// The first send goes out immediately; every later one waits out
		// the full gap so the ceiling is never burst.
		if i > 0 {
			pace := time.NewTimer(d.cfg.PaceInterval)
			select {
			case <-pace.C:
			case <-ctx.Done():
				pace.Stop()
				log.Warn("bulk send interrupted", zap.Int("processed", i), zap.Error(ctx.Err()))
				return d.finish(ctx, job, sent, delivered, failed, total, outcomes)
			}
		}

		sid, err := d.channel.SendTemplate(ctx, phone, job.ContentSID, job.Variables)
		sent++
		outcome := model.SendOutcome{
			JobID:      job.ID,
			CampaignID: job.CampaignID,
			Phone:      phone,
			MessageSID: sid,
			SentAt:     time.Now().UTC(),
		}
		if err != nil {
			failed++
			outcome.Outcome = "failed"
			outcome.Error = err.Error()
			failedRecipients = append(failedRecipients, phone)
			metrics.SendsTotal.WithLabelValues("failed", d.cfg.Kind).Inc()
			log.Warn("send failed", zap.String("phone", phone), zap.Error(err))
		} else {
			delivered++
			outcome.Outcome = "delivered"
			metrics.SendsTotal.WithLabelValues("delivered", d.cfg.Kind).Inc()
		}
		outcomes = append(outcomes, outcome)

		if (i+1)%d.cfg.CheckpointEvery == 0 && i+1 < total {
			d.checkpoint(ctx, job, sent, delivered, failed, total, outcomes)
			outcomes = outcomes[:0]
		}
	}

	summary := d.finish(ctx, job, sent, delivered, failed, total, outcomes)

	if len(failedRecipients) > 0 {
		// Recorded so an operator can backfill exactly the failed subset.
		log.Warn("recipients failed in this run", zap.Strings("phones", failedRecipients))
	}
	log.Info("bulk send completed",
		zap.Int("sent", summary.Sent),
		zap.Int("delivered", summary.Delivered),
		zap.Int("failed", summary.Failed),
		zap.String("status", summary.Status.String()),
	)

	return summary
}

// checkpoint persists aggregate progress: campaign counters, the live job
// snapshot, and the buffered per-recipient outcomes. A failed write is
// logged and the run continues; the next checkpoint supersedes it.
func (d *Dispatcher) checkpoint(ctx context.Context, job model.DispatchJob, sent, delivered, failed, total int, outcomes []model.SendOutcome) {
	if job.CampaignID != "" {
		if err := d.campaigns.UpdateCounts(ctx, job.CampaignID, sent, delivered); err != nil {
			d.log.Error("checkpoint campaign counts", zap.String("campaign_id", job.CampaignID), zap.Error(err))
		}
	}

	if err := d.progress.WriteSnapshot(ctx, job.ID, model.Progress{
		Sent:      sent,
		Delivered: delivered,
		Failed:    failed,
		Total:     total,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		d.log.Error("checkpoint progress snapshot", zap.String("job_id", job.ID), zap.Error(err))
	}

	if d.sendLog != nil && len(outcomes) > 0 {
		if err := d.sendLog.InsertBatch(ctx, outcomes); err != nil {
			d.log.Error("checkpoint send log", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) finish(ctx context.Context, job model.DispatchJob, sent, delivered, failed, total int, outcomes []model.SendOutcome) model.Summary {
	status := model.CampaignCompleted
	if failed > 0 {
		status = model.CampaignCompletedWithErrors
	}

	// The final checkpoint is unconditional, regardless of total mod N.
	d.checkpoint(ctx, job, sent, delivered, failed, total, outcomes)

	if job.CampaignID != "" {
		if err := d.campaigns.Finish(ctx, job.CampaignID, status, sent, delivered); err != nil {
			d.log.Error("persist final campaign state", zap.String("campaign_id", job.CampaignID), zap.Error(err))
		}
	}

	return model.Summary{
		Sent:      sent,
		Delivered: delivered,
		Failed:    failed,
		Total:     total,
		Status:    status,
	}
}
