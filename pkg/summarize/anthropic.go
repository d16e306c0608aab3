package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// MessagesAPI is the surface of anthropic.Client.Messages this package
// calls, narrowed for testability the same way pkg/embedding narrows
// *bedrockruntime.Client down to BedrockClient.
type MessagesAPI interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicSummarizer produces a summary by prompting Claude with
// exactly the supplied facts and instructing it to never add anything
// not present there; a RuleBased fallback guarantees a Result even if
// the model response can't be parsed.
type AnthropicSummarizer struct {
	messages  MessagesAPI
	model     string
	maxTokens int
	timeout   time.Duration
	fallback  Summarizer
}

// NewAnthropicSummarizer wraps an already-constructed Anthropic
// messages client (built against cfg.APIKeyEnv at call-site bootstrap).
func NewAnthropicSummarizer(messages MessagesAPI, cfg config.SummarizerConfig) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		messages:  messages,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		fallback:  NewRuleBased(),
	}
}

// NewAnthropicMessagesClient builds a real Anthropic client for apiKey
// and returns its Messages service, which satisfies MessagesAPI
// structurally.
func NewAnthropicMessagesClient(apiKey string) MessagesAPI {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

type llmSummaryResponse struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Confidence float64  `json:"confidence"`
}

// Summarize prompts Claude with the facts rendered as a fact sheet and
// a strict no-invention instruction, parsing its JSON reply. On any
// transport or parse failure, it falls back to the deterministic
// rule-based summary rather than surfacing an error to the caller —
// the rerank stage is optional and must degrade, not fail, the match.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, facts MatchSummaryFacts) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	maxTokens := int64(s.maxTokens)
	if maxTokens <= 0 {
		maxTokens = 512
	}

	resp, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(facts))),
		},
	})
	if err != nil {
		return s.fallback.Summarize(ctx, facts)
	}

	text := firstTextBlock(resp)
	var parsed llmSummaryResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return s.fallback.Summarize(ctx, facts)
	}

	return Result{
		Summary:    parsed.Summary,
		Highlights: parsed.Highlights,
		Confidence: clamp01(parsed.Confidence),
		Grounded:   true,
		Provider:   "anthropic:" + s.model,
	}, nil
}

func buildPrompt(facts MatchSummaryFacts) string {
	var b strings.Builder
	b.WriteString("You are summarizing a staffing match. Use ONLY the facts below — never invent a skill, rate, or status not listed here. Respond with JSON: {\"summary\": string, \"highlights\": string[], \"confidence\": number between 0 and 1}.\n\n")
	fmt.Fprintf(&b, "Requirement: %s\n", facts.RequirementTitle)
	fmt.Fprintf(&b, "Client: %s\n", facts.ClientName)
	fmt.Fprintf(&b, "Consultant headline: %s\n", facts.ConsultantHeadline)
	fmt.Fprintf(&b, "Aligned skills: %s\n", strings.Join(facts.AlignedSkills, ", "))
	fmt.Fprintf(&b, "Missing skills: %s\n", strings.Join(facts.MissingSkills, ", "))
	fmt.Fprintf(&b, "Location status: %s\n", facts.LocationStatus)
	if facts.RateDelta != nil {
		fmt.Fprintf(&b, "Rate delta: %.2f (within range: %v)\n", *facts.RateDelta, facts.RateWithinRange)
	}
	fmt.Fprintf(&b, "Availability: %s\n", facts.AvailabilityDesc)
	fmt.Fprintf(&b, "Retrieval score: %.3f, linear score: %.3f, LTR score: %.3f\n", facts.RetrievalScore, facts.LinearScore, facts.LTRScore)
	return b.String()
}

func firstTextBlock(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if text := block.Text; text != "" {
			return text
		}
	}
	return ""
}

// extractJSON trims any leading/trailing prose the model added around
// the JSON object, keeping only the outermost braces; it returns "" when
// there are none, so the caller's decode fails and falls back.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
