package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/queue"
	"github.com/konetibalaji/benchsales-match/test/util"
)

func newTestStore(t *testing.T) *queue.Store {
	t.Helper()
	dsn := util.SetupTestSchema(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return queue.NewStore(pool)
}

func TestEnqueueClaimComplete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "resume.ingestion", map[string]string{"document_id": "doc-1"}, queue.EnqueueOptions{
		TenantID:    "tenant-acme",
		MaxAttempts: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := store.Claim(ctx, "resume.ingestion", "worker-1")
	require.NoError(t, err)
	require.Equal(t, id, job.ID)
	require.Equal(t, queue.StatusActive, job.Status)

	_, err = store.Claim(ctx, "resume.ingestion", "worker-2")
	require.ErrorIs(t, err, queue.ErrEmpty)

	require.NoError(t, store.Complete(ctx, job.ID))
}

func TestEnqueueIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.Enqueue(ctx, "requirement.ingestion", map[string]string{"a": "1"}, queue.EnqueueOptions{
		TenantID:       "tenant-acme",
		IdempotencyKey: "content-hash-abc",
		MaxAttempts:    3,
	})
	require.NoError(t, err)

	id2, err := store.Enqueue(ctx, "requirement.ingestion", map[string]string{"a": "2"}, queue.EnqueueOptions{
		TenantID:       "tenant-acme",
		IdempotencyKey: "content-hash-abc",
		MaxAttempts:    3,
	})
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestEnqueueRefusesPastHighWaterMark(t *testing.T) {
	store := newTestStore(t)
	store.SetHighWaterMarks(map[string]int{"resume.ingestion": 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Enqueue(ctx, "resume.ingestion", map[string]int{"n": i}, queue.EnqueueOptions{
			TenantID: "tenant-acme",
		})
		require.NoError(t, err)
	}

	_, err := store.Enqueue(ctx, "resume.ingestion", map[string]int{"n": 2}, queue.EnqueueOptions{
		TenantID: "tenant-acme",
	})
	require.ErrorIs(t, err, queue.ErrQueueFull)

	// Other queues stay unbounded.
	_, err = store.Enqueue(ctx, "sync.processing", map[string]int{"n": 0}, queue.EnqueueOptions{
		TenantID: "tenant-acme",
	})
	require.NoError(t, err)

	// Draining a job frees a slot.
	job, err := store.Claim(ctx, "resume.ingestion", "worker-1")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, job.ID))

	_, err = store.Enqueue(ctx, "resume.ingestion", map[string]int{"n": 3}, queue.EnqueueOptions{
		TenantID: "tenant-acme",
	})
	require.NoError(t, err)
}

func TestFailSchedulesRetryThenMovesToDLQ(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Enqueue(ctx, "webhook.processing", map[string]string{"x": "1"}, queue.EnqueueOptions{
		TenantID:    "tenant-acme",
		MaxAttempts: 2,
	})
	require.NoError(t, err)

	job, err := store.Claim(ctx, "webhook.processing", "worker-1")
	require.NoError(t, err)

	require.NoError(t, store.Fail(ctx, job, errors.New("boom"), time.Millisecond))

	count, err := store.CountByType(ctx, "webhook.processing")
	require.NoError(t, err)
	require.Equal(t, 0, count)

	time.Sleep(5 * time.Millisecond)
	job2, err := store.Claim(ctx, "webhook.processing", "worker-1")
	require.NoError(t, err)
	require.Equal(t, job.ID, job2.ID)
	require.Equal(t, 1, job2.Attempts)

	require.NoError(t, store.Fail(ctx, job2, errors.New("boom again"), time.Millisecond))

	count, err = store.CountByType(ctx, "webhook.processing")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	drained, err := store.Drain(ctx, "webhook.processing", 10)
	require.NoError(t, err)
	require.Equal(t, 1, drained)

	requeued, err := store.Claim(ctx, "webhook.processing", "worker-1")
	require.NoError(t, err)
	require.Equal(t, 0, requeued.Attempts)
}

func TestRecoverOrphans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Enqueue(ctx, "sync.processing", map[string]string{"x": "1"}, queue.EnqueueOptions{
		TenantID:    "tenant-acme",
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	job, err := store.Claim(ctx, "sync.processing", "worker-1")
	require.NoError(t, err)
	require.NotNil(t, job)

	n, err := store.RecoverOrphans(ctx, "sync.processing", 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	active, err := store.ActiveCount(ctx, "sync.processing")
	require.NoError(t, err)
	require.Equal(t, 0, active)
}
