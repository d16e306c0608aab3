package ingestion

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// StructuredRequirement is the structured shape scraped from free-text
// requirement bodies: {title, clientName, location, suggestedRate?, skills[]}.
type StructuredRequirement struct {
	Title         string
	ClientName    string
	Location      *string
	SuggestedRate *float64
	Skills        []string
}

// StructuredExtractor turns raw requirement text into the fields the
// requirement ingestion worker needs to resolve/create a Requirement.
// The default implementation below is deterministic and line-oriented;
// a future LLM-backed implementation (pkg/summarize) plugs in here
// without changing the worker.
type StructuredExtractor interface {
	Extract(ctx context.Context, rawText string) (StructuredRequirement, error)
}

// HeuristicExtractor parses `Key: value` header lines (Title, Client,
// Location, Rate) out of the top of a requirement email/posting and
// treats the remaining prose as free-text skill-bearing content; the
// skill list itself is still resolved by the caller via the ontology
// matcher, so Skills here is left empty and is only used when the
// source text has an explicit "Skills:" line.
type HeuristicExtractor struct{}

// NewHeuristicExtractor builds the deterministic default collaborator.
func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

var (
	titleLineRe    = regexp.MustCompile(`(?i)^\s*title\s*:\s*(.+)$`)
	clientLineRe   = regexp.MustCompile(`(?i)^\s*client\s*:\s*(.+)$`)
	locationLineRe = regexp.MustCompile(`(?i)^\s*location\s*:\s*(.+)$`)
	rateLineRe     = regexp.MustCompile(`(?i)^\s*rate\s*:\s*\$?([0-9]+(?:\.[0-9]+)?)`)
	skillsLineRe   = regexp.MustCompile(`(?i)^\s*skills\s*:\s*(.+)$`)
)

// Extract scans rawText line by line for `Key: value` headers, falling
// back to the first non-empty line as the title and "Unknown" as the
// client when no explicit headers are present so a requirement is
// always creatable from unstructured source text.
func (HeuristicExtractor) Extract(_ context.Context, rawText string) (StructuredRequirement, error) {
	var out StructuredRequirement

	for _, line := range strings.Split(rawText, "\n") {
		if m := titleLineRe.FindStringSubmatch(line); m != nil {
			out.Title = strings.TrimSpace(m[1])
		}
		if m := clientLineRe.FindStringSubmatch(line); m != nil {
			out.ClientName = strings.TrimSpace(m[1])
		}
		if m := locationLineRe.FindStringSubmatch(line); m != nil {
			loc := strings.TrimSpace(m[1])
			out.Location = &loc
		}
		if m := rateLineRe.FindStringSubmatch(line); m != nil {
			if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
				out.SuggestedRate = &rate
			}
		}
		if m := skillsLineRe.FindStringSubmatch(line); m != nil {
			for _, s := range strings.Split(m[1], ",") {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out.Skills = append(out.Skills, trimmed)
				}
			}
		}
	}

	if out.Title == "" {
		out.Title = firstNonEmptyLine(rawText)
	}
	if out.ClientName == "" {
		out.ClientName = "Unknown"
	}
	return out, nil
}
