package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bobotcho/wacommerce/internal/dispatch"
	"github.com/bobotcho/wacommerce/internal/kafka"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
	"go.uber.org/zap"
)

// Worker executes dispatch jobs off the request path:
// - fetches job envelopes from Kafka,
// - claims the job row (queued -> running, single owner),
// - runs the rate-governed dispatcher to completion,
// - persists the terminal state and summary.
//
// Multiple workers may run concurrently, each owning distinct jobs; within
// one job sends stay strictly sequential because the channel's rate ceiling
// is global to the job. Jobs are never requeued automatically: a re-run
// would re-send to every recipient that already succeeded.
type Worker struct {
	Consumer   *kafka.Consumer
	Jobs       repository.JobsRepository
	Dispatcher *dispatch.Dispatcher
	Log        *zap.Logger

	// Workers is the number of goroutines processing distinct jobs.
	Workers int
}

func NewWorker(consumer *kafka.Consumer, jobs repository.JobsRepository, d *dispatch.Dispatcher, log *zap.Logger) *Worker {
	return &Worker{
		Consumer:   consumer,
		Jobs:       jobs,
		Dispatcher: d,
		Log:        log,
		Workers:    4,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 4
	}

	msgCh := make(chan kafka.Message, w.Workers)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					w.Log.Warn("kafka fetch", zap.Error(err))
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	for i := 0; i < w.Workers; i++ {
		go w.runProcessor(ctx, msgCh)
	}

	<-ctx.Done()
	return nil
}

func (w *Worker) runProcessor(ctx context.Context, in <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.processOne(ctx, m)
		}
	}
}

func (w *Worker) processOne(ctx context.Context, m kafka.Message) {
	var env model.JobEnvelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.JobID == "" {
		// poison -> commit, skip
		_ = w.Consumer.Commit(ctx, m)
		if err != nil {
			w.Log.Warn("bad job envelope", zap.Error(err))
		} else {
			w.Log.Warn("job envelope missing id")
		}
		return
	}

	log := w.Log.With(zap.String("job_id", env.JobID))

	job, err := w.Jobs.GetByID(ctx, env.JobID)
	if err != nil {
		log.Error("load job", zap.Error(err))
		// Leave uncommitted so the envelope is redelivered once the store
		// is reachable again.
		return
	}
	if job == nil {
		log.Warn("job row not found, skipping")
		_ = w.Consumer.Commit(ctx, m)
		return
	}

	claimed, err := w.Jobs.MarkRunning(ctx, job.ID)
	if err != nil {
		log.Error("claim job", zap.Error(err))
		return
	}
	if !claimed {
		// Already owned by another worker or already terminal.
		log.Info("job not claimable", zap.String("state", job.State.String()))
		_ = w.Consumer.Commit(ctx, m)
		return
	}

	summary := w.Dispatcher.Run(ctx, *job)

	state := model.JobSucceeded
	if summary.Sent < summary.Total {
		// Interrupted before every recipient was attempted.
		state = model.JobFailed
	}
	if err := w.Jobs.MarkFinished(ctx, job.ID, state, summary); err != nil {
		log.Error("persist job result", zap.Error(err))
	}
	metrics.JobsTotal.WithLabelValues(state.String()).Inc()

	if err := w.Consumer.Commit(ctx, m); err != nil {
		log.Error("kafka commit", zap.Error(err))
	}
}
