package queue

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of notification a job carries.
type Kind string

const (
	KindInventoryChange Kind = "inventory_change"
	KindPriceChange     Kind = "price_change"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInventoryChange || k == KindPriceChange
}

// State is the lifecycle state of a job.
type State string

const (
	StateQueued          State = "queued"
	StateActive          State = "active"
	StateCompleted       State = "completed"
	StateFailedRetryable State = "failed_retryable"
	StateDeadLetter      State = "dead_letter"
)

// States lists every state in lifecycle order.
var States = []State{StateQueued, StateActive, StateCompleted, StateFailedRetryable, StateDeadLetter}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDeadLetter
}

var transitions = map[State][]State{
	StateQueued:          {StateActive},
	StateActive:          {StateCompleted, StateFailedRetryable, StateDeadLetter},
	StateFailedRetryable: {StateQueued},
}

// CanTransition reports whether a job may move from one state to another.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// claimTransition validates moving a due job into active. A failed_retryable
// job whose backoff has elapsed is requeued first.
func claimTransition(id uuid.UUID, from State) error {
	if from == StateFailedRetryable {
		if err := checkTransition(id, from, StateQueued); err != nil {
			return err
		}
		from = StateQueued
	}
	return checkTransition(id, from, StateActive)
}

func checkTransition(id uuid.UUID, from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: job %s from %s to %s", ErrInvalidTransition, id, from, to)
	}
	return nil
}

// Outcome describes how a completed job finished.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
)

// Job is one unit of outbound work.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	Recipient   string          `json:"recipient"`
	ListingID   string          `json:"listing_id"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	State       State           `json:"state"`
	RunAt       time.Time       `json:"run_at"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID      `json:"locked_by,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Outcome     Outcome         `json:"outcome,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// Exhausted reports whether the job has used its whole attempt budget.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

func (j *Job) validate() error {
	switch {
	case j.ID == uuid.Nil:
		return fmt.Errorf("%w: id is required", ErrInvalidJob)
	case !j.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, j.Kind)
	case j.Recipient == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidJob)
	case len(j.Payload) == 0:
		return fmt.Errorf("%w: payload is required", ErrInvalidJob)
	}
	return nil
}

// Stats counts jobs per state.
type Stats map[State]int64

// Total returns the number of jobs across all states.
func (s Stats) Total() int64 {
	var n int64
	for _, c := range s {
		n += c
	}
	return n
}
