// Package logger builds the service's *slog.Logger and provides attribute
// helpers so that pipeline components log the same keys for the same things.
//
// New applies functional options on top of production-safe defaults (JSON,
// info level, stdout). Environment presets select text output and debug level
// for development. ContextExtractor callbacks inject request-scoped values,
// such as a request id, into every record logged with a context.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "stockalert"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "job completed",
//	    logger.JobID(job.ID),
//	    logger.Attempt(job.Attempts),
//	    logger.Duration(time.Since(start)),
//	)
//
// Error and Errors return an empty attribute for nil errors, so callers can log
// unconditionally.
package logger
