// Package notifier is the channel layer of the delivery pipeline.
//
// A Notifier delivers one per-recipient message copy through one channel. The
// Registry maps channel names to notifiers and persists the delivered copy when
// the channel options ask for it:
//
//	reg := notifier.NewRegistry(
//		notifier.WithNotifier("email", notifier.NewEmail(sender, addresses)),
//		notifier.WithNotifier("push", notifier.NewNATS(nc, cfg.SubjectPrefix)),
//		notifier.WithMessageStorage(messages),
//	)
//	err := reg.Send(ctx, "email", msg, notifier.Options{SaveOnSuccess: true})
//
// Sending to an unregistered channel returns ErrUnknownNotifier. Channel errors
// are returned to the caller, which decides whether to continue.
package notifier
