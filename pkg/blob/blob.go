// Package blob wraps the S3-compatible object store backing document
// assets: direct puts/gets for the ingestion worker, presigned PUT/GET
// for the manual-upload HTTP surface. Follows the same shape as the
// aws-sdk-go-v2/service/bedrockruntime wiring in pkg/embedding: a narrow
// client interface constructed externally from a shared aws.Config, so
// tests substitute a stub instead of hitting AWS.
package blob

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// S3API is the surface of *s3.Client this package calls, narrowed for
// testability.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner is the surface of *s3.PresignClient this package calls.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store persists document bytes under tenant-scoped keys and mints
// presigned URLs for client-direct upload/download.
type Store struct {
	client     S3API
	presigner  Presigner
	bucket     string
	presignTTL time.Duration
}

// NewStore wires a Store against an already-configured S3 client and
// presign client (normally s3.NewFromConfig / s3.NewPresignClient over a
// shared aws.Config built once at process start).
func NewStore(client S3API, presigner Presigner, cfg config.BlobConfig) *Store {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{client: client, presigner: presigner, bucket: cfg.Bucket, presignTTL: ttl}
}

// Put uploads data to key, overwriting only if the caller already
// checked for a content-hash conflict — object keys are write-once,
// so re-uploads with the same content hash should short-circuit
// before reaching here; this method does not itself dedupe.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return apperr.Transient("put object", err)
	}
	return nil
}

// Get fetches the full contents of key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apperr.Transient("get object", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Transient("read object body", err)
	}
	return data, nil
}

// PresignPut returns a time-limited URL a client can PUT bytes to
// directly with a fixed Content-Type and Content-Length, bypassing
// the application server for the upload itself.
func (s *Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, withExpires(s.presignTTL))
	if err != nil {
		return "", apperr.Transient("presign put url", err)
	}
	return req.URL, nil
}

// PresignGet returns a time-limited URL a client can GET bytes from
// directly.
func (s *Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, withExpires(s.presignTTL))
	if err != nil {
		return "", apperr.Transient("presign get url", err)
	}
	return req.URL, nil
}

func withExpires(ttl time.Duration) func(*s3.PresignOptions) {
	return func(o *s3.PresignOptions) { o.Expires = ttl }
}
