// Package notifier fans a listing change out to its subscribers and delivers
// the resulting notification jobs.
//
// Service is the producer side. SubmitChange validates a change.Event, then
// classifies it, resolves the listing's enabled subscribers and enqueues one
// queue.Job per subscriber in a background goroutine, so the write that
// produced the change never waits on notification work. Fanout is the same
// step run synchronously; it returns a Report of what was enqueued.
//
// Job IDs are derived from the recipient, listing, category and the old and
// new values, so repeating the same change while its job is still pending
// does not enqueue a second notification.
//
// DeliveryHandler is the consumer side. Registered with a queue.Worker, it
// decodes the job payload, drops jobs superseded by a newer delivered change
// for the same recipient and attribute, and sends the email.
package notifier
