package audit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/audit"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/test/util"
)

func newTestStore(t *testing.T) *audit.Store {
	t.Helper()
	dsn := util.SetupTestSchema(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return audit.NewStore(pool)
}

func TestRecordChainsHashes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Record(ctx, audit.RecordInput{
		TenantID:   "tenant-acme",
		Action:     "consultant.create",
		EntityType: "Consultant",
		ResultCode: "OK",
	})
	require.NoError(t, err)
	require.Nil(t, first.PrevHash)
	require.NotEmpty(t, first.Hash)

	second, err := store.Record(ctx, audit.RecordInput{
		TenantID:   "tenant-acme",
		Action:     "requirement.create",
		EntityType: "Requirement",
		ResultCode: "OK",
	})
	require.NoError(t, err)
	require.NotNil(t, second.PrevHash)
	require.Equal(t, first.Hash, *second.PrevHash)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Record(ctx, audit.RecordInput{
			TenantID:   "tenant-acme",
			Action:     "match.create",
			EntityType: "Match",
			ResultCode: "OK",
			Payload:    models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{"i": i}},
		})
		require.NoError(t, err)
	}

	entries, err := store.ListForTenant(ctx, "tenant-acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	ok, brokenAt := audit.VerifyChain(entries)
	require.True(t, ok)
	require.Equal(t, -1, brokenAt)

	entries[1].Action = "tampered.action"
	ok, brokenAt = audit.VerifyChain(entries)
	require.False(t, ok)
	require.Equal(t, 1, brokenAt)
}

func TestRecordIsSerializedPerTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Record(ctx, audit.RecordInput{
				TenantID:   "tenant-concurrent",
				Action:     "concurrent.write",
				EntityType: "Test",
				ResultCode: "OK",
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	entries, err := store.ListForTenant(ctx, "tenant-concurrent", n+1)
	require.NoError(t, err)
	require.Len(t, entries, n)

	ok, _ := audit.VerifyChain(entries)
	require.True(t, ok)
}
