package queue

import "context"

// Handler delivers one job. Returning ErrSkipped completes the job without
// delivery; any other error counts as a failed attempt.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
