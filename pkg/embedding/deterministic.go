package embedding

import (
	"context"
	"math"
)

// Deterministic is a hash-based embedder requiring no managed provider:
// the same text always produces the same unit vector. Used as the
// default embedding collaborator until a managed provider (pkg/embedding.Client,
// Bedrock-backed) is configured, so the hybrid index's vector side still
// functions (degraded, but never absent) in a deployment with no AWS
// credentials wired yet.
type Deterministic struct {
	dimension int
}

// NewDeterministic returns an embedder producing unit vectors of dim
// dimensions, defaulting to 384 if dim <= 0.
func NewDeterministic(dim int) *Deterministic {
	if dim <= 0 {
		dim = 384
	}
	return &Deterministic{dimension: dim}
}

// Embed returns a deterministic, unit-length embedding derived from a
// simple polynomial rolling hash of text.
func (d *Deterministic) Embed(ctx context.Context, text string) ([]float32, error) {
	h := hashString(text)
	vec := make([]float32, d.dimension)
	var sumSquares float64
	for i := range vec {
		v := math.Sin(float64(h*(i+1)))*0.1 + 0.01
		vec[i] = float32(v)
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently; there is no batching cost
// to amortize since this never leaves the process.
func (d *Deterministic) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, _ := d.Embed(ctx, t)
		out[i] = vec
	}
	return out, nil
}

// hashString is a deterministic, non-cryptographic rolling hash used
// only to seed Embed's vector, never for identity or security purposes.
func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
