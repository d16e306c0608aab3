package ingestion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

func TestRefreshIdentitySignaturesIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	ctx := context.Background()

	email := "sam.lee@acme.io"
	phone := "415-555-0188"
	location := "Denver, CO"
	c := &models.Consultant{FirstName: "Sam", LastName: "Lee", Email: &email, Phone: &phone, Location: &location, Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	require.NoError(t, ingestion.RefreshIdentitySignatures(ctx, store.Identity, store.Consultants, tc, c.ID))
	first, err := store.Identity.SignaturesFor(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Refreshing again with unchanged consultant data must not duplicate
	// the existing (kind, value) signatures.
	require.NoError(t, ingestion.RefreshIdentitySignatures(ctx, store.Identity, store.Consultants, tc, c.ID))
	second, err := store.Identity.SignaturesFor(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Len(t, second, 3)
}

func TestDuplicateClustersGroupsBySharedSignature(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	ctx := context.Background()

	email := "dup@acme.io"
	a := &models.Consultant{FirstName: "Ann", LastName: "Apple", Email: &email, Availability: models.AvailabilityAvailable}
	b := &models.Consultant{FirstName: "Anne", LastName: "Appel", Email: &email, Availability: models.AvailabilityAvailable}
	otherEmail := "unique@acme.io"
	c := &models.Consultant{FirstName: "Cara", LastName: "Carter", Email: &otherEmail, Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, a))
	require.NoError(t, store.Consultants.Create(ctx, tc, b))
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	for _, consultant := range []*models.Consultant{a, b, c} {
		require.NoError(t, ingestion.RefreshIdentitySignatures(ctx, store.Identity, store.Consultants, tc, consultant.ID))
	}

	clusters, err := ingestion.DuplicateClusters(ctx, store.Identity, tc, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	require.ElementsMatch(t, []string{a.ID, b.ID}, clusters[0].Members)
	require.Equal(t, "PENDING", clusters[0].Status)
}
