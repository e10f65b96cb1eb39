package subscribers

import (
	"time"

	"github.com/dmitrymomot/subscribe/pkg/notifier"
)

// SubscribeOptions control one send operation. They are serialized into queued jobs.
type SubscribeOptions struct {
	SaveMessage bool `json:"save_message"`
	// SkipContext keeps the context map as given instead of expanding it.
	SkipContext bool `json:"skip_context"`
	// LastRecipientID is the cursor: accounts at or below it are already processed.
	LastRecipientID int64 `json:"last_recipient_id"`
	// Recipients replaces subscriber resolution with a fixed recipient set.
	Recipients *Recipients `json:"recipients,omitempty"`
	// Range is the maximum number of recipients per slice. Zero means unbounded.
	Range int `json:"range"`
	// EndTime is the wall clock deadline of a worker slice. Zero means unbounded.
	EndTime            time.Time `json:"end_time"`
	UseQueue           bool      `json:"use_queue"`
	QueueWorker        bool      `json:"queue_worker"`
	EntityAccess       bool      `json:"entity_access"`
	NotifyBlockedUsers bool      `json:"notify_blocked_users"`
	NotifyMessageOwner bool      `json:"notify_message_owner"`

	// ResumeRecipientID and ResumeChannels describe a recipient whose channels were
	// only partly attempted when the previous slice ran out of time.
	ResumeRecipientID int64    `json:"resume_recipient_id,omitempty"`
	ResumeChannels    []string `json:"resume_channels,omitempty"`

	rangeSet bool
}

// SubscribeOption overrides a default of SubscribeOptions.
type SubscribeOption func(*SubscribeOptions)

// SubscribeOptions returns the defaults derived from the config with opts applied.
// Range defaults to QueueRange when the send is queued and to unbounded otherwise.
func (c Config) SubscribeOptions(opts ...SubscribeOption) SubscribeOptions {
	o := SubscribeOptions{
		SaveMessage:        true,
		UseQueue:           c.UseQueue,
		EntityAccess:       true,
		NotifyMessageOwner: c.NotifyOwnActions,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.rangeSet && o.UseQueue {
		o.Range = c.QueueRange
	}
	return o
}

// WithSaveMessage sets whether an unsaved message is persisted before sending.
func WithSaveMessage(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.SaveMessage = v }
}

// WithSkipContext disables context expansion.
func WithSkipContext(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.SkipContext = v }
}

// WithLastRecipientID sets the resume cursor.
func WithLastRecipientID(id int64) SubscribeOption {
	return func(o *SubscribeOptions) { o.LastRecipientID = id }
}

// WithRecipients sends to a fixed recipient set instead of resolving subscribers.
func WithRecipients(r *Recipients) SubscribeOption {
	return func(o *SubscribeOptions) { o.Recipients = r }
}

// WithRange limits the number of recipients handled per slice. Zero means unbounded.
func WithRange(n int) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Range = n
		o.rangeSet = true
	}
}

// WithEndTime sets the slice deadline.
func WithEndTime(t time.Time) SubscribeOption {
	return func(o *SubscribeOptions) { o.EndTime = t }
}

// WithQueue overrides the configured queue setting.
func WithQueue(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.UseQueue = v }
}

// WithEntityAccess toggles the per-recipient view access check.
func WithEntityAccess(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.EntityAccess = v }
}

// WithNotifyBlockedUsers includes blocked accounts.
func WithNotifyBlockedUsers(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.NotifyBlockedUsers = v }
}

// WithNotifyMessageOwner overrides the configured own-actions setting.
func WithNotifyMessageOwner(v bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.NotifyMessageOwner = v }
}

// deadlinePassed reports whether the slice deadline is set and exceeded.
func (o SubscribeOptions) deadlinePassed(now time.Time) bool {
	return !o.EndTime.IsZero() && now.After(o.EndTime)
}

// NotifyOptions are per-channel delivery options keyed by channel name.
type NotifyOptions map[string]notifier.Options

// For returns the options of a channel. Unset channels get the zero value,
// which neither saves on success nor on failure.
func (n NotifyOptions) For(channel string) notifier.Options {
	return n[channel]
}
