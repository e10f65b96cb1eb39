package subscribers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/logger"
	"github.com/dmitrymomot/subscribe/pkg/message"
	"github.com/dmitrymomot/subscribe/pkg/notifier"
	"github.com/dmitrymomot/subscribe/pkg/queue"
)

// Sender delivers a message through a named channel. notifier.Registry implements it.
type Sender interface {
	Send(ctx context.Context, channel string, msg *message.Message, opts notifier.Options) error
}

// Enqueuer persists delivery jobs. queue.Enqueuer implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

var (
	_ Sender   = (*notifier.Registry)(nil)
	_ Enqueuer = (*queue.Enqueuer)(nil)
)

// Dispatcher sends a message to every resolved recipient through the recipient's
// channels, either immediately or through resumable delivery jobs.
type Dispatcher struct {
	cfg      Config
	resolver *Resolver
	messages message.Storage
	sender   Sender
	enqueuer Enqueuer
	alterers []MessageAlterer
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEnqueuer enables queued delivery.
func WithEnqueuer(e Enqueuer) DispatcherOption {
	return func(d *Dispatcher) {
		d.enqueuer = e
	}
}

// WithMessageAlterer registers a hook that runs on every per-recipient message copy.
func WithMessageAlterer(a MessageAlterer) DispatcherOption {
	return func(d *Dispatcher) {
		d.alterers = append(d.alterers, a)
	}
}

// WithMetrics enables dispatch metrics.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a message dispatcher.
func NewDispatcher(cfg Config, resolver *Resolver, messages message.Storage, sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		resolver: resolver,
		messages: messages,
		sender:   sender,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logger.Component("subscribers.dispatcher"))
	return d
}

// SendMessage notifies the subscribers of e about msg. Options not given fall back
// to the configured defaults.
//
// When the send is queued, SendMessage returns once the delivery job is stored.
// Queuing an unsaved message with saving disabled fails with ErrUnsavedMessage.
// Channel failures are logged and never returned.
func (d *Dispatcher) SendMessage(ctx context.Context, e entity.Entity, msg *message.Message, notify NotifyOptions, opts ...SubscribeOption) error {
	return d.Dispatch(ctx, e, msg, notify, d.cfg.SubscribeOptions(opts...), nil)
}

// Dispatch is SendMessage with fully resolved options and an optional precomputed context map.
func (d *Dispatcher) Dispatch(ctx context.Context, e entity.Entity, msg *message.Message, notify NotifyOptions, o SubscribeOptions, cm entity.ContextMap) error {
	if msg == nil {
		return message.ErrNilMessage
	}

	if msg.IsNew() && o.SaveMessage {
		if err := d.messages.Save(ctx, msg); err != nil {
			return fmt.Errorf("save message: %w", err)
		}
	}

	if o.UseQueue && !o.QueueWorker {
		if msg.IsNew() {
			return ErrUnsavedMessage
		}
		if len(cm) == 0 {
			var err error
			if cm, err = d.resolver.expander.BasicContext(ctx, e, o.SkipContext, cm); err != nil {
				return fmt.Errorf("build context: %w", err)
			}
		}
		o.SkipContext = true
		return d.enqueue(ctx, DeliveryJob{
			MessageID: msg.ID,
			Entity:    e.Ref(),
			Notify:    notify,
			Options:   o,
			Context:   cm,
		}, jobEnqueued)
	}

	return d.deliver(ctx, e, msg, notify, o, cm)
}

func (d *Dispatcher) deliver(ctx context.Context, e entity.Entity, msg *message.Message, notify NotifyOptions, o SubscribeOptions, cm entity.ContextMap) error {
	start := d.now()

	if len(cm) == 0 {
		var err error
		if cm, err = d.resolver.expander.BasicContext(ctx, e, o.SkipContext, cm); err != nil {
			return fmt.Errorf("build context: %w", err)
		}
	}

	var (
		recipients *Recipients
		resolved   page
	)
	if o.Recipients.Len() > 0 {
		recipients = o.Recipients.Clone()
	} else {
		var err error
		if recipients, resolved, err = d.resolver.resolve(ctx, e, msg, o, cm); err != nil {
			return err
		}
	}

	// Alterers may add accounts outside the resolved page, so the page is cut again.
	// Anything cut stays above the new cursor.
	if o.Range > 0 || o.QueueWorker || o.LastRecipientID > 0 {
		if recipients.Window(o.LastRecipientID, o.Range) {
			resolved = page{full: true}
		}
	}

	log := d.logger.With(logger.MessageID(msg.ID), logger.Entity(e.Type, e.ID))

	if recipients.Len() == 0 {
		log.LogAttrs(ctx, slog.LevelDebug, "no recipients", logger.Cursor(o.LastRecipientID))
	}

	var (
		cursor     = o.LastRecipientID
		progressed bool
		resume     *resumePoint
		timedOut   bool
	)

	for id, c := range recipients.All() {
		if progressed && o.QueueWorker && o.deadlinePassed(d.now()) {
			timedOut = true
			break
		}

		clone := msg.Clone()
		clone.OwnerID = id
		for _, a := range d.alterers {
			if err := a.AlterMessage(ctx, clone, c); err != nil {
				log.LogAttrs(ctx, slog.LevelWarn, "message alterer failed", logger.Recipient(id), logger.Error(err))
			}
		}

		var skip []string
		if id == o.ResumeRecipientID {
			skip = o.ResumeChannels
		}

		channels := c.Notifiers()
		attempted := make([]string, 0, len(channels))
		for i, ch := range channels {
			if slices.Contains(skip, ch) {
				attempted = append(attempted, ch)
				continue
			}

			err := d.sender.Send(ctx, ch, clone, notify.For(ch).WithContext(cm))
			d.metrics.delivery(ch, err)
			if err != nil {
				log.LogAttrs(ctx, slog.LevelWarn, "channel delivery failed",
					logger.Recipient(id),
					logger.Channel(ch),
					logger.Error(err),
				)
			}
			attempted = append(attempted, ch)

			if o.QueueWorker && i < len(channels)-1 && o.deadlinePassed(d.now()) {
				resume = &resumePoint{recipientID: id, channels: attempted}
				break
			}
		}
		if resume != nil {
			timedOut = true
			break
		}

		cursor = max(cursor, id)
		progressed = true
		d.metrics.recipient()
	}

	if !o.QueueWorker {
		return nil
	}
	d.metrics.slice(d.now().Sub(start))

	if !timedOut {
		// Accounts the alterers removed from the page are skipped, not retried.
		cursor = max(cursor, resolved.last)
		if !resolved.full {
			d.metrics.job(jobCompleted)
			log.LogAttrs(ctx, slog.LevelDebug, "delivery completed", logger.Cursor(cursor))
			return nil
		}
	}

	next := o
	next.QueueWorker = false
	next.SkipContext = true
	next.EndTime = time.Time{}
	next.LastRecipientID = cursor
	next.ResumeRecipientID = 0
	next.ResumeChannels = nil
	if resume != nil {
		next.ResumeRecipientID = resume.recipientID
		next.ResumeChannels = resume.channels
	}

	err := d.enqueue(ctx, DeliveryJob{
		MessageID: msg.ID,
		Entity:    e.Ref(),
		Notify:    notify,
		Options:   next,
		Context:   cm,
	}, jobRequeued)
	if err != nil {
		// The slice is not retried; its recipients were already sent to.
		d.metrics.job(jobAbandoned)
		log.LogAttrs(ctx, slog.LevelError, "delivery abandoned: continuation not stored",
			logger.Cursor(cursor),
			logger.Error(err),
		)
	}
	return nil
}

// resumePoint is a recipient whose channels were only partly attempted.
type resumePoint struct {
	recipientID int64
	channels    []string
}

func (d *Dispatcher) enqueue(ctx context.Context, job DeliveryJob, event string) error {
	if d.enqueuer == nil {
		return ErrQueueNotConfigured
	}

	id, err := d.enqueuer.Enqueue(ctx, job, queue.WithQueue(d.cfg.QueueName))
	if err != nil {
		return fmt.Errorf("enqueue delivery job: %w", err)
	}
	d.metrics.job(event)

	d.logger.LogAttrs(ctx, slog.LevelDebug, "delivery job "+event,
		logger.JobID(id),
		logger.MessageID(job.MessageID),
		logger.Entity(job.Entity.Type, job.Entity.ID),
		logger.Cursor(job.Options.LastRecipientID),
	)
	return nil
}
