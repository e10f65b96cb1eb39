// Package queue provides a storage-agnostic task queue with exclusive claims,
// retries with linear backoff and a dead letter queue.
//
// The package is organised around two components:
//
//   - Enqueuer: serialises a payload to JSON and stores it as a pending Task
//   - Worker: claims due tasks and dispatches them to a registered Handler
//
// Both talk to storage through small repository interfaces. Three backends are
// provided: MemoryStorage (tests, development), RedisStorage (Lua-scripted
// atomic claims) and PostgresStorage (FOR UPDATE SKIP LOCKED, goose migrations
// embedded in the package).
//
// A claimed task is locked for the worker's lock timeout. Completing a task
// removes it; failing it either reschedules it or marks it failed, after which
// the worker moves it to the dead letter queue. Locks that expire return the
// task to the pending state.
//
// # Running workers
//
// Long-running processes call Start/Stop, or Run with an errgroup. Cron-style
// deployments call Drain, which processes tasks one at a time until the queue
// is empty or the time budget is spent:
//
//	storage := queue.NewMemoryStorage()
//	enqueuer, _ := queue.NewEnqueuer(storage, queue.WithDefaultQueue("deliveries"))
//	worker, _ := queue.NewWorker(storage, queue.WithQueues("deliveries"))
//
//	_ = worker.RegisterHandler(queue.NewTaskHandler(func(ctx context.Context, job DeliveryJob) error {
//	    return deliver(ctx, job)
//	}))
//
//	_, _ = enqueuer.Enqueue(ctx, DeliveryJob{MessageID: id})
//	processed, err := worker.Drain(ctx, 15*time.Second)
//
// Handlers are matched by name. NewTaskHandler names a handler after its payload
// type and Enqueue names a task after its payload type, so the two line up
// without configuration.
package queue
