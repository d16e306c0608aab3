package summarize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

type stubMessages struct {
	text string
	err  error
}

func (s stubMessages) New(_ context.Context, _ anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Text: s.text}},
	}, nil
}

func TestAnthropicSummarizerParsesModelJSON(t *testing.T) {
	stub := stubMessages{text: `{"summary":"Strong match on Go and Kubernetes.","highlights":["Go","Kubernetes"],"confidence":0.91}`}
	s := summarize.NewAnthropicSummarizer(stub, config.SummarizerConfig{Model: "claude-3-5-haiku-latest", MaxTokens: 256})

	result, err := s.Summarize(context.Background(), summarize.MatchSummaryFacts{RequirementTitle: "Backend Engineer"})
	require.NoError(t, err)
	require.Equal(t, "Strong match on Go and Kubernetes.", result.Summary)
	require.ElementsMatch(t, []string{"Go", "Kubernetes"}, result.Highlights)
	require.InDelta(t, 0.91, result.Confidence, 0.001)
	require.True(t, result.Grounded)
	require.Contains(t, result.Provider, "anthropic")
}

func TestAnthropicSummarizerFallsBackOnTransportError(t *testing.T) {
	stub := stubMessages{err: errors.New("connection reset")}
	s := summarize.NewAnthropicSummarizer(stub, config.SummarizerConfig{Model: "claude-3-5-haiku-latest", MaxTokens: 256})

	result, err := s.Summarize(context.Background(), summarize.MatchSummaryFacts{AlignedSkills: []string{"Go"}})
	require.NoError(t, err)
	require.Equal(t, "rule_based", result.Provider)
	require.True(t, result.Grounded)
}

func TestAnthropicSummarizerFallsBackOnUnparsableResponse(t *testing.T) {
	stub := stubMessages{text: "not json at all"}
	s := summarize.NewAnthropicSummarizer(stub, config.SummarizerConfig{Model: "claude-3-5-haiku-latest", MaxTokens: 256})

	result, err := s.Summarize(context.Background(), summarize.MatchSummaryFacts{AlignedSkills: []string{"Go"}})
	require.NoError(t, err)
	require.Equal(t, "rule_based", result.Provider)
	require.Contains(t, result.Summary, "Go")
}
