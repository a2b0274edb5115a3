// Package queue is a durable, at-least-once job queue for outbound notifications
// together with the worker pool that drains it.
//
// The package is organised around four components that talk to storage only
// through small repository interfaces:
//
//   - Enqueuer  inserts jobs, deduplicating on job ID
//   - Worker    claims due jobs and dispatches them to a Handler
//   - Purger    removes terminal jobs once their retention period has passed
//   - Inspector reads jobs back for operators (dead letters, counts)
//
// MemoryStorage implements every repository for tests and single-process use.
// PostgresStorage implements them on the notification_jobs table and claims
// with FOR UPDATE SKIP LOCKED so several workers can share one table.
//
// # Lifecycle
//
//	queued → active → completed
//	queued → active → failed_retryable → (backoff) → active → … → dead_letter
//
// Attempts are counted when a job is claimed. A job whose handler returns an
// error is retried after Policy.Backoff until it has been attempted
// Policy.MaxAttempts times, then moved to dead_letter. A handler may return
// ErrSkipped to finish a job without delivering it; such jobs complete with
// OutcomeSkipped.
//
// # Usage
//
//	storage := queue.NewMemoryStorage()
//	defer storage.Close()
//
//	enq, _ := queue.NewEnqueuer(storage)
//	inserted, err := enq.Enqueue(ctx, &queue.Job{
//	    ID:        id,
//	    Kind:      queue.KindInventoryChange,
//	    Recipient: "buyer@example.com",
//	    ListingID: "listing-1",
//	    Payload:   payload,
//	})
//
//	w, _ := queue.NewWorker(storage,
//	    queue.WithMaxConcurrentJobs(5),
//	    queue.WithThroughput(10, time.Second),
//	)
//	_ = w.RegisterHandler(queue.KindInventoryChange, handler)
//	g.Go(w.Run(ctx))
package queue
