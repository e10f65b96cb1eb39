// Package subscribers resolves who should be notified about an event on a piece
// of content and delivers the message to them.
//
// The pipeline has four parts:
//
//   - Expander builds the context map of the triggering entity: parent content,
//     groups, authors and tagged terms.
//   - Resolver collects candidates from the registered providers, merges them,
//     removes blocked accounts, the acting owner and accounts without view access,
//     adds the default notifiers and runs the recipient alterers.
//   - Dispatcher clones the message per recipient, runs the message alterers and
//     sends the copy through every channel of the candidate.
//   - DeliveryJob carries a send operation through the queue. A worker slice
//     handles recipients above the cursor until the page is full or the time
//     budget is spent, then enqueues a continuation job.
//
// Wiring:
//
//	expander := subscribers.NewExpander(entities, subscribers.WithMemberships(entities))
//	resolver := subscribers.NewResolver(cfg, expander,
//		subscribers.WithProvider(subscribers.NewFlagProvider(flags, cfg)),
//		subscribers.WithAccounts(entities),
//		subscribers.WithFlagService(flags),
//	)
//	dispatcher := subscribers.NewDispatcher(cfg, resolver, messages, registry,
//		subscribers.WithEnqueuer(enqueuer),
//		subscribers.WithMetrics(subscribers.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//	_ = worker.RegisterHandler(dispatcher.Handler())
//
//	err := dispatcher.SendMessage(ctx, comment, msg, nil, subscribers.WithQueue(true))
//
// Channel failures are logged and counted but never stop delivery to other
// channels or recipients. The only error a caller must handle specifically is
// ErrUnsavedMessage. Infrastructure errors are returned so queue workers retry.
//
// The worker time budget should stay below the queue lock timeout so a slice
// never outlives its claim.
package subscribers
