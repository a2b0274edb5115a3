package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrJobNil is returned when attempting to enqueue a nil job
	ErrJobNil = errors.New("job cannot be nil")

	// ErrInvalidJob is returned when a job is missing required fields
	ErrInvalidJob = errors.New("invalid job")

	// ErrJobNotFound is returned when a job does not exist in storage
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobToClaim is returned by ClaimJob when no job is due
	ErrNoJobToClaim = errors.New("no job to claim")

	// ErrInvalidTransition is returned when a state change violates the job lifecycle
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrHandlerNotFound is returned when no handler is registered for a job kind
	ErrHandlerNotFound = errors.New("no handler registered for job kind")

	// ErrNoHandlers is returned when worker has no handlers registered
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrWorkerStarted is returned by Start when the worker is already running
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned by Stop when the worker is not running
	ErrWorkerNotStarted = errors.New("worker not started")

	// ErrSkipped is returned by a Handler to complete a job without delivering it
	ErrSkipped = errors.New("job skipped")
)
