package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool (or pgx.Tx) used by PostgresStorage.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStorage implements Storage on the notification_jobs table.
// Claims use FOR UPDATE SKIP LOCKED so any number of workers can share the table.
type PostgresStorage struct {
	db  DBTX
	now func() time.Time
}

// NewPostgresStorage creates a storage over db.
func NewPostgresStorage(db DBTX) (*PostgresStorage, error) {
	if db == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{db: db, now: time.Now}, nil
}

const jobColumns = `id, kind, recipient, listing_id, payload, attempts, max_attempts, state, run_at,
	locked_until, locked_by, last_error, outcome, occurred_at, created_at, updated_at, finished_at`

func (s *PostgresStorage) InsertJob(ctx context.Context, job *Job) (bool, error) {
	if job == nil {
		return false, ErrJobNil
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO notification_jobs (id, kind, recipient, listing_id, payload, attempts, max_attempts,
			state, run_at, occurred_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, 'queued', $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			recipient = EXCLUDED.recipient,
			listing_id = EXCLUDED.listing_id,
			payload = EXCLUDED.payload,
			attempts = 0,
			max_attempts = EXCLUDED.max_attempts,
			state = 'queued',
			run_at = EXCLUDED.run_at,
			locked_until = NULL,
			locked_by = NULL,
			last_error = '',
			outcome = '',
			occurred_at = EXCLUDED.occurred_at,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			finished_at = NULL
		WHERE notification_jobs.state IN ('completed', 'dead_letter')`,
		job.ID, job.Kind, job.Recipient, job.ListingID, []byte(job.Payload), job.MaxAttempts,
		job.RunAt, job.OccurredAt, job.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	now := s.now()

	if err := s.releaseExpiredLocks(ctx, now); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		UPDATE notification_jobs
		SET state = 'active', attempts = attempts + 1, locked_until = $2, locked_by = $3, updated_at = $1
		WHERE id = (
			SELECT id FROM notification_jobs
			WHERE state IN ('queued', 'failed_retryable') AND run_at <= $1
			ORDER BY run_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		now, now.Add(lockDuration), workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[jobRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoJobToClaim
		}
		return nil, fmt.Errorf("failed to scan claimed job: %w", err)
	}
	return row.job(), nil
}

// releaseExpiredLocks turns active jobs abandoned by a crashed worker into
// failed attempts.
func (s *PostgresStorage) releaseExpiredLocks(ctx context.Context, now time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notification_jobs
		SET state = CASE WHEN attempts >= max_attempts THEN 'dead_letter' ELSE 'failed_retryable' END,
			finished_at = CASE WHEN attempts >= max_attempts THEN $1 ELSE NULL END,
			run_at = $1,
			last_error = 'worker lock expired',
			locked_until = NULL,
			locked_by = NULL,
			updated_at = $1
		WHERE state = 'active' AND locked_until < $1`, now)
	if err != nil {
		return fmt.Errorf("failed to release expired job locks: %w", err)
	}
	return nil
}

func (s *PostgresStorage) CompleteJob(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	now := s.now()
	tag, err := s.db.Exec(ctx, `
		UPDATE notification_jobs
		SET state = 'completed', outcome = $2, locked_until = NULL, locked_by = NULL,
			updated_at = $3, finished_at = $3
		WHERE id = $1 AND state = 'active'`, id, outcome, now)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return s.checkUpdated(ctx, tag, id, StateCompleted)
}

func (s *PostgresStorage) RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notification_jobs
		SET state = 'failed_retryable', run_at = $2, last_error = $3, locked_until = NULL, locked_by = NULL,
			updated_at = $4
		WHERE id = $1 AND state = 'active'`, id, runAt, errMsg, s.now())
	if err != nil {
		return fmt.Errorf("failed to schedule retry of job %s: %w", id, err)
	}
	return s.checkUpdated(ctx, tag, id, StateFailedRetryable)
}

func (s *PostgresStorage) DeadLetterJob(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := s.now()
	tag, err := s.db.Exec(ctx, `
		UPDATE notification_jobs
		SET state = 'dead_letter', last_error = $2, locked_until = NULL, locked_by = NULL,
			updated_at = $3, finished_at = $3
		WHERE id = $1 AND state = 'active'`, id, errMsg, now)
	if err != nil {
		return fmt.Errorf("failed to dead-letter job %s: %w", id, err)
	}
	return s.checkUpdated(ctx, tag, id, StateDeadLetter)
}

func (s *PostgresStorage) ExtendLock(ctx context.Context, id uuid.UUID, duration time.Duration) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notification_jobs SET locked_until = $2
		WHERE id = $1 AND state = 'active'`, id, s.now().Add(duration))
	if err != nil {
		return fmt.Errorf("failed to extend lock of job %s: %w", id, err)
	}
	return s.checkUpdated(ctx, tag, id, StateActive)
}

// checkUpdated turns a zero-row update into ErrJobNotFound or ErrInvalidTransition.
func (s *PostgresStorage) checkUpdated(ctx context.Context, tag pgconn.CommandTag, id uuid.UUID, to State) error {
	if tag.RowsAffected() > 0 {
		return nil
	}

	var state string
	err := s.db.QueryRow(ctx, `SELECT state FROM notification_jobs WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read state of job %s: %w", id, err)
	}
	return fmt.Errorf("%w: job %s from %s to %s", ErrInvalidTransition, id, state, to)
}

func (s *PostgresStorage) DeleteFinishedBefore(ctx context.Context, state State, cutoff time.Time) (int64, error) {
	if !state.Terminal() {
		return 0, fmt.Errorf("%w: cannot purge %s jobs", ErrInvalidTransition, state)
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM notification_jobs WHERE state = $1 AND finished_at < $2`, state, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s jobs: %w", state, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	rows, err := s.db.Query(ctx, `SELECT `+jobColumns+` FROM notification_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query job %s: %w", id, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[jobRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan job %s: %w", id, err)
	}
	return row.job(), nil
}

func (s *PostgresStorage) ListJobs(ctx context.Context, state State, limit int) ([]*Job, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+jobColumns+` FROM notification_jobs
		WHERE state = $1
		ORDER BY updated_at DESC
		LIMIT $2`, state, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s jobs: %w", state, err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[jobRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s jobs: %w", state, err)
	}

	out := make([]*Job, 0, len(list))
	for _, r := range list {
		out = append(out, r.job())
	}
	return out, nil
}

func (s *PostgresStorage) CountJobs(ctx context.Context) (Stats, error) {
	rows, err := s.db.Query(ctx, `SELECT state, count(*) FROM notification_jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	stats := make(Stats)
	for rows.Next() {
		var (
			state string
			n     int64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		stats[State(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	return stats, nil
}

type jobRow struct {
	ID          uuid.UUID  `db:"id"`
	Kind        string     `db:"kind"`
	Recipient   string     `db:"recipient"`
	ListingID   string     `db:"listing_id"`
	Payload     []byte     `db:"payload"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	State       string     `db:"state"`
	RunAt       time.Time  `db:"run_at"`
	LockedUntil *time.Time `db:"locked_until"`
	LockedBy    *uuid.UUID `db:"locked_by"`
	LastError   string     `db:"last_error"`
	Outcome     string     `db:"outcome"`
	OccurredAt  time.Time  `db:"occurred_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	FinishedAt  *time.Time `db:"finished_at"`
}

func (r *jobRow) job() *Job {
	return &Job{
		ID:          r.ID,
		Kind:        Kind(r.Kind),
		Recipient:   r.Recipient,
		ListingID:   r.ListingID,
		Payload:     r.Payload,
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		State:       State(r.State),
		RunAt:       r.RunAt,
		LockedUntil: r.LockedUntil,
		LockedBy:    r.LockedBy,
		LastError:   r.LastError,
		Outcome:     Outcome(r.Outcome),
		OccurredAt:  r.OccurredAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		FinishedAt:  r.FinishedAt,
	}
}
