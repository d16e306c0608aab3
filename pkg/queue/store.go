package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
)

// ErrEmpty is returned by Claim when no job is currently available.
var ErrEmpty = apperr.NotFound("no job available")

// ErrQueueFull is returned by Enqueue when a queue's pending depth has
// reached its configured high-water mark. Transient: callers retry once
// workers drain the backlog.
var ErrQueueFull = apperr.Transient("queue depth at high-water mark", nil)

// Store is the durable job backing store, shared by every named queue.
type Store struct {
	pool      *pgxpool.Pool
	highWater map[string]int
}

// NewStore wraps an existing connection pool (normally database.Store.Pool).
func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// SetHighWaterMarks installs per-queue pending-depth bounds from config.
// Queues absent from marks (or marked 0) stay unbounded. Call before
// Enqueue traffic starts; the map is read without locking afterwards.
func (s *Store) SetHighWaterMarks(marks map[string]int) { s.highWater = marks }

// Enqueue durably inserts a job. When opts.IdempotencyKey is set and a
// job with the same (queue, idempotency_key) already exists, Enqueue is
// a no-op and returns the existing job's id, giving at-least-once
// delivery without duplicate processing.
func (s *Store) Enqueue(ctx context.Context, queueName string, payload any, opts EnqueueOptions) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Validation("encode job payload: " + err.Error())
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	availableAt := opts.AvailableAt
	if availableAt.IsZero() {
		availableAt = time.Now()
	}

	// Backpressure: refuse new work once pending depth hits the mark.
	// The count races with concurrent enqueues, so the bound can
	// overshoot by a few jobs; the mark is a soft ceiling, not a quota.
	if mark := s.highWater[queueName]; mark > 0 {
		var depth int
		row := s.pool.QueryRow(ctx, `
			SELECT count(*) FROM queue_jobs
			WHERE queue = $1 AND status IN ('WAITING', 'ACTIVE', 'FAILED_RETRYING')`, queueName)
		if err := row.Scan(&depth); err != nil {
			return "", apperr.Transient("count queue depth", err)
		}
		if depth >= mark {
			return "", ErrQueueFull
		}
	}

	id := uuid.NewString()
	var idemKey any
	if opts.IdempotencyKey != "" {
		idemKey = opts.IdempotencyKey
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO queue_jobs (id, queue, tenant_id, idempotency_key, payload, status, max_attempts, available_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (queue, idempotency_key) WHERE idempotency_key IS NOT NULL
		DO UPDATE SET queue = queue_jobs.queue
		RETURNING id`,
		id, queueName, opts.TenantID, idemKey, raw, StatusWaiting, maxAttempts, availableAt)

	var insertedID string
	if err := row.Scan(&insertedID); err != nil {
		return "", apperr.Transient("enqueue job", err)
	}
	return insertedID, nil
}

// Claim atomically claims the oldest available job in queueName using
// FOR UPDATE SKIP LOCKED, marking it ACTIVE and locked by workerID.
// Returns ErrEmpty when nothing is ready.
func (s *Store) Claim(ctx context.Context, queueName, workerID string) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Transient("begin claim transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, queue, tenant_id, coalesce(idempotency_key, ''), payload, status, attempts,
		       max_attempts, available_at, locked_at, locked_by, coalesce(last_error, ''),
		       created_at, updated_at
		FROM queue_jobs
		WHERE queue = $1 AND status IN ('WAITING', 'FAILED_RETRYING') AND available_at <= now()
		ORDER BY available_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`, queueName)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrEmpty
		}
		return nil, apperr.Transient("claim job", err)
	}

	now := time.Now()
	if _, err := tx.Exec(ctx, `
		UPDATE queue_jobs SET status=$1, locked_at=$2, locked_by=$3, updated_at=$2
		WHERE id=$4`, StatusActive, now, workerID, job.ID); err != nil {
		return nil, apperr.Transient("mark job active", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Transient("commit claim", err)
	}

	job.Status = StatusActive
	job.LockedAt = &now
	job.LockedBy = &workerID
	return job, nil
}

// Complete marks a claimed job COMPLETED.
func (s *Store) Complete(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_jobs SET status=$1, locked_at=NULL, locked_by=NULL, updated_at=now()
		WHERE id=$2`, StatusCompleted, jobID)
	if err != nil {
		return apperr.Transient("complete job", err)
	}
	return nil
}

// Fail records a failed attempt. If attempts remain, the job moves to
// FAILED_RETRYING and becomes claimable again at the exponential backoff
// time now + B*2^(attempt-1).
// Once attempts are exhausted it is moved to the queue's .dlq sibling
// carrying {failedAt, reason, originalData}.
func (s *Store) Fail(ctx context.Context, job *Job, causeErr error, backoffBase time.Duration) error {
	attempts := job.Attempts + 1
	reason := ""
	if causeErr != nil {
		reason = causeErr.Error()
	}

	if attempts >= job.MaxAttempts {
		return s.moveToDLQ(ctx, job, reason)
	}

	delay := backoffBase * time.Duration(1<<uint(attempts-1))
	nextAttempt := time.Now().Add(delay)

	_, err := s.pool.Exec(ctx, `
		UPDATE queue_jobs
		SET status=$1, attempts=$2, last_error=$3, available_at=$4,
		    locked_at=NULL, locked_by=NULL, updated_at=now()
		WHERE id=$5`,
		StatusFailedRetrying, attempts, reason, nextAttempt, job.ID)
	if err != nil {
		return apperr.Transient("schedule job retry", err)
	}
	return nil
}

func (s *Store) moveToDLQ(ctx context.Context, job *Job, reason string) error {
	dl := DeadLetter{FailedAt: time.Now(), Reason: reason, OriginalData: job.Payload}
	raw, err := json.Marshal(dl)
	if err != nil {
		return apperr.Fatal("encode dead letter", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Transient("begin dlq transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE queue_jobs SET status=$1, last_error=$2, locked_at=NULL, locked_by=NULL, updated_at=now()
		WHERE id=$3`, StatusDead, reason, job.ID); err != nil {
		return apperr.Transient("mark job dead", err)
	}

	dlqID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO queue_jobs (id, queue, tenant_id, payload, status, max_attempts, available_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())`,
		dlqID, DLQName(job.Queue), job.TenantID, raw, StatusDead, job.MaxAttempts); err != nil {
		return apperr.Transient("insert dlq job", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("commit dlq move", err)
	}
	return nil
}

// CountByType returns the number of DEAD jobs currently sitting in a
// queue's .dlq sibling.
func (s *Store) CountByType(ctx context.Context, queueName string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM queue_jobs WHERE queue=$1 AND status=$2`,
		DLQName(queueName), StatusDead).Scan(&n)
	if err != nil {
		return 0, apperr.Transient("count dlq jobs", err)
	}
	return n, nil
}

// Drain requeues up to limit DLQ jobs for queueName back onto the
// primary queue with a fresh attempt counter.
func (s *Store) Drain(ctx context.Context, queueName string, limit int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, apperr.Transient("begin drain transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, payload, tenant_id, max_attempts FROM queue_jobs
		WHERE queue=$1 AND status=$2
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`, DLQName(queueName), StatusDead, limit)
	if err != nil {
		return 0, apperr.Transient("select dlq jobs for drain", err)
	}

	type dlqRow struct {
		id          string
		payload     json.RawMessage
		tenantID    string
		maxAttempts int
	}
	var toRequeue []dlqRow
	for rows.Next() {
		var r dlqRow
		if err := rows.Scan(&r.id, &r.payload, &r.tenantID, &r.maxAttempts); err != nil {
			rows.Close()
			return 0, apperr.Transient("scan dlq job", err)
		}
		toRequeue = append(toRequeue, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, apperr.Transient("iterate dlq jobs", err)
	}

	for _, r := range toRequeue {
		var dl DeadLetter
		original := r.payload
		if err := json.Unmarshal(r.payload, &dl); err == nil && dl.OriginalData != nil {
			original = dl.OriginalData
		}
		newID := uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO queue_jobs (id, queue, tenant_id, payload, status, max_attempts, available_at)
			VALUES ($1,$2,$3,$4,$5,$6,now())`,
			newID, queueName, r.tenantID, original, StatusWaiting, r.maxAttempts); err != nil {
			return 0, apperr.Transient("requeue dlq job", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM queue_jobs WHERE id=$1`, r.id); err != nil {
			return 0, apperr.Transient("delete drained dlq job", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperr.Transient("commit drain", err)
	}
	return len(toRequeue), nil
}

// ActiveCount returns the number of ACTIVE jobs in queueName, used by
// workers for best-effort concurrency accounting and by health checks
// for queue depth.
func (s *Store) ActiveCount(ctx context.Context, queueName string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM queue_jobs WHERE queue=$1 AND status=$2`,
		queueName, StatusActive).Scan(&n)
	if err != nil {
		return 0, apperr.Transient("count active jobs", err)
	}
	return n, nil
}

// Depth returns the number of jobs waiting to be claimed in queueName.
func (s *Store) Depth(ctx context.Context, queueName string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM queue_jobs WHERE queue=$1 AND status IN ('WAITING','FAILED_RETRYING') AND available_at <= now()`,
		queueName).Scan(&n)
	if err != nil {
		return 0, apperr.Transient("count queue depth", err)
	}
	return n, nil
}

// RecoverOrphans resets jobs stuck ACTIVE past the orphan threshold
// (a worker that crashed mid-job) back to WAITING for reclaiming.
func (s *Store) RecoverOrphans(ctx context.Context, queueName string, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_jobs
		SET status=$1, locked_at=NULL, locked_by=NULL, updated_at=now()
		WHERE queue=$2 AND status=$3 AND locked_at < $4`,
		StatusWaiting, queueName, StatusActive, time.Now().Add(-olderThan))
	if err != nil {
		return 0, apperr.Transient("recover orphaned jobs", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	if err := row.Scan(
		&j.ID, &j.Queue, &j.TenantID, &j.IdempotencyKey, &j.Payload, &j.Status, &j.Attempts,
		&j.MaxAttempts, &j.AvailableAt, &j.LockedAt, &j.LockedBy, &j.LastError,
		&j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}
