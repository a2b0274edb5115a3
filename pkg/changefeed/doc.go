// Package changefeed carries listing change events over NATS.
//
// Write paths that modify a listing publish a change.Event with Publisher.
// A Consumer queue-subscribes to the same subject and hands every decoded
// event to a Submitter, usually notifier.Service. Consumers that share a
// queue group split the stream so each event is submitted once per group.
//
// Malformed messages are logged and dropped. Rejected events are logged by
// the submitter. Neither is redelivered.
//
//	nc, err := changefeed.Connect(cfg, logger)
//	pub := changefeed.NewPublisher(nc, changefeed.WithSubject(cfg.Subject))
//	err = pub.Publish(ctx, event)
//
//	cons, err := changefeed.NewConsumer(nc, svc, changefeed.WithQueueGroup(cfg.QueueGroup))
//	g.Go(cons.Run(ctx))
package changefeed
