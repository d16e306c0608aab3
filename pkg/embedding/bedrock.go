// Package embedding turns text into the fixed-dimension vectors
// pkg/search indexes, calling Amazon Bedrock's Titan embedding model
// via the AWS SDK.
package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// BedrockClient is the surface of *bedrockruntime.Client this package
// calls, narrowed for testability.
type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client embeds text via a configured Bedrock model.
type Client struct {
	bedrock   BedrockClient
	modelID   string
	dimension int
	batchSize int
}

// NewClient wraps an already-constructed Bedrock client (built from the
// standard AWS config loader against cfg.Region at call-site bootstrap).
func NewClient(bedrock BedrockClient, cfg config.EmbeddingConfig) *Client {
	return &Client{bedrock: bedrock, modelID: cfg.ModelID, dimension: cfg.Dimension, batchSize: cfg.BatchSize}
}

// titanRequest is the Titan Embeddings G1 request body.
type titanRequest struct {
	InputText string `json:"inputText"`
}

// titanResponse is the Titan Embeddings G1 response body.
type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed returns text's embedding vector, validated against the
// configured dimension.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{InputText: text})
	if err != nil {
		return nil, apperr.Fatal("encode embedding request", err)
	}

	out, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, apperr.Transient("invoke embedding model", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, apperr.Fatal("decode embedding response", err)
	}
	if c.dimension > 0 && len(resp.Embedding) != c.dimension {
		return nil, apperr.New(apperr.KindIntegrity,
			fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(resp.Embedding), c.dimension))
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds each text, chunking calls at the configured batch
// size (Titan's embeddings endpoint takes one input per call, so every
// text is embedded serially, one InvokeModel call at a time).
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	batchSize := c.batchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			vec, err := c.Embed(ctx, texts[i])
			if err != nil {
				return nil, err
			}
			out[i] = vec
		}
	}
	return out, nil
}
