package subscribers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/logger"
	"github.com/dmitrymomot/subscribe/pkg/queue"
)

// DeliveryJob is the queued form of a send operation. It references the message
// and entity by ID and carries the options and the already expanded context map.
type DeliveryJob struct {
	MessageID string            `json:"message_id"`
	Entity    entity.Ref        `json:"entity"`
	Notify    NotifyOptions     `json:"notify_options,omitempty"`
	Options   SubscribeOptions  `json:"subscribe_options"`
	Context   entity.ContextMap `json:"context"`
}

// Validate checks that the job references a message and an entity.
func (j DeliveryJob) Validate() error {
	if j.MessageID == "" {
		return fmt.Errorf("%w: message id is required", ErrInvalidJob)
	}
	if j.Entity.Type == "" || j.Entity.ID == 0 {
		return fmt.Errorf("%w: entity reference is required", ErrInvalidJob)
	}
	return nil
}

// HandleJob processes one slice of a queued send. The message and entity are
// reloaded; when either is gone the job is dropped without error.
// The slice runs until the configured worker time budget is spent and then
// enqueues a continuation job.
func (d *Dispatcher) HandleJob(ctx context.Context, job DeliveryJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	msg, err := d.messages.Get(ctx, job.MessageID)
	if errors.Is(err, ErrMessageNotFound) {
		d.orphaned(ctx, job, "message")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	e, err := entity.Load(ctx, d.resolver.expander.loader, job.Entity)
	if errors.Is(err, ErrEntityNotFound) {
		d.orphaned(ctx, job, "entity")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entity: %w", err)
	}

	o := job.Options
	o.QueueWorker = true
	o.EndTime = d.now().Add(d.cfg.WorkerTimeBudget)

	return d.Dispatch(ctx, e, msg, job.Notify, o, job.Context)
}

func (d *Dispatcher) orphaned(ctx context.Context, job DeliveryJob, missing string) {
	d.metrics.job(jobOrphaned)
	d.logger.LogAttrs(ctx, slog.LevelInfo, "dropping orphaned delivery job",
		slog.String("missing", missing),
		logger.MessageID(job.MessageID),
		logger.Entity(job.Entity.Type, job.Entity.ID),
	)
}

// Handler returns the queue handler for DeliveryJob tasks.
// Check the worker settings with Config.ValidateQueue before registering it.
func (d *Dispatcher) Handler() queue.Handler {
	return queue.NewTaskHandler[DeliveryJob](d.HandleJob)
}
