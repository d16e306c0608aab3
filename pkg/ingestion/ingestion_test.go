package ingestion_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/blob"
	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/extract"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/ner"
	"github.com/konetibalaji/benchsales-match/pkg/ontology"
	"github.com/konetibalaji/benchsales-match/pkg/pii"
	"github.com/konetibalaji/benchsales-match/pkg/queue"
	"github.com/konetibalaji/benchsales-match/test/util"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	dsn := util.SetupTestSchema(t)
	store, err := database.NewStore(context.Background(), config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func mustTenant(t *testing.T, id string) database.TenantContext {
	t.Helper()
	tc, err := database.NewTenantContext(id)
	require.NoError(t, err)
	return tc
}

type memS3 struct{ objects map[string][]byte }

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(m.objects[*in.Key]))}, nil
}

type memPresigner struct{}

func (memPresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://example.test/put/" + *in.Key}, nil
}

func (memPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://example.test/get/" + *in.Key}, nil
}

func newBlobStore() *blob.Store {
	return blob.NewStore(&memS3{}, memPresigner{}, config.BlobConfig{Bucket: "docs"})
}

func newVault(t *testing.T, store *database.Store) *pii.Vault {
	t.Helper()
	v, err := pii.NewVault(store.PIIVault, []byte("test-secret-value-not-for-prod"), "pii")
	require.NoError(t, err)
	return v
}

func seedSkills(t *testing.T, store *database.Store, names ...string) *ontology.Matcher {
	t.Helper()
	for _, name := range names {
		_, err := store.Skills.Upsert(context.Background(), &models.Skill{Name: name})
		require.NoError(t, err)
	}
	m, err := ontology.Load(context.Background(), store.Skills)
	require.NoError(t, err)
	return m
}

func newExtractor() *extract.Extractor { return extract.NewExtractor(nil) }

func newRecognizer() ner.EntityRecognizer { return ner.NewFallback() }

func newQueueStore(store *database.Store) *queue.Store { return queue.NewStore(store.Pool) }
