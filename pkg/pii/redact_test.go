package pii_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/pii"
)

func TestRedactSplicesTokensAndBuildsSummary(t *testing.T) {
	repo := newMemRepo()
	vault, err := pii.NewVault(repo, []byte("super-secret-vault-key-material"), "tok")
	require.NoError(t, err)

	detector := pii.NewDetector([]string{"EMAIL", "PHONE"})
	redactor := pii.NewRedactor(detector, vault)

	tc, err := database.NewTenantContext("tenant-acme")
	require.NoError(t, err)

	text := "Reach Jane at jane@example.com or 555-123-4567."
	redacted, summary, err := redactor.Redact(context.Background(), tc, text, nil)
	require.NoError(t, err)

	require.NotContains(t, redacted, "jane@example.com")
	require.NotContains(t, redacted, "555-123-4567")
	require.Contains(t, redacted, "{{tok:EMAIL:")
	require.Contains(t, redacted, "{{tok:PHONE:")

	counts, ok := summary.Data["counts"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1, counts["EMAIL"])
	require.Equal(t, 1, counts["PHONE"])

	raw, err := summary.MarshalForStorage()
	require.NoError(t, err)
	require.Contains(t, string(raw), `"type":"EMAIL"`)
	require.Contains(t, string(raw), `"type":"PHONE"`)
}

func TestRedactIsNoopWhenNothingFound(t *testing.T) {
	repo := newMemRepo()
	vault, err := pii.NewVault(repo, []byte("super-secret-vault-key-material"), "tok")
	require.NoError(t, err)

	detector := pii.NewDetector([]string{"EMAIL"})
	redactor := pii.NewRedactor(detector, vault)

	tc, err := database.NewTenantContext("tenant-acme")
	require.NoError(t, err)

	text := "Nothing sensitive here."
	redacted, summary, err := redactor.Redact(context.Background(), tc, text, nil)
	require.NoError(t, err)
	require.Equal(t, text, redacted)
	require.Empty(t, summary.Data["counts"])
}
