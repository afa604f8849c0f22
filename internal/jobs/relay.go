package jobs

import (
	"context"
	"time"

	"github.com/bobotcho/wacommerce/internal/kafka"
	"github.com/bobotcho/wacommerce/internal/repository"
	"go.uber.org/zap"
)

// Relay ships committed outbox events to Kafka and marks them published.
// Publishing is at-least-once: a crash between publish and mark re-publishes
// the event, and consumers treat duplicate envelopes as no-ops via the job
// claim.
type Relay struct {
	Outbox   repository.OutboxRepository
	Producer *kafka.Producer
	Log      *zap.Logger

	PollInterval time.Duration
	BatchSize    int
}

func NewRelay(outbox repository.OutboxRepository, producer *kafka.Producer, log *zap.Logger) *Relay {
	return &Relay{
		Outbox:       outbox,
		Producer:     producer,
		Log:          log,
		PollInterval: 500 * time.Millisecond,
		BatchSize:    100,
	}
}

// Run polls the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r.PollInterval <= 0 {
		r.PollInterval = 500 * time.Millisecond
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 100
	}

	tick := time.NewTicker(r.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			r.relayOnce(ctx)
		}
	}
}

func (r *Relay) relayOnce(ctx context.Context) {
	events, err := r.Outbox.FetchUnpublished(ctx, r.BatchSize)
	if err != nil {
		r.Log.Warn("outbox fetch", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	published := make([]int64, 0, len(events))
	for _, ev := range events {
		if err := r.Producer.Publish(ctx, ev.Topic, ev.AggregateID, ev.Payload); err != nil {
			// Stop the batch here; order within the outbox is preserved.
			r.Log.Warn("outbox publish", zap.Int64("event_id", ev.ID), zap.Error(err))
			break
		}
		published = append(published, ev.ID)
	}

	if len(published) == 0 {
		return
	}
	if err := r.Outbox.MarkPublished(ctx, published); err != nil {
		r.Log.Error("outbox mark published", zap.Error(err))
		return
	}
	r.Log.Debug("outbox relayed", zap.Int("events", len(published)))
}
