// Package pii implements regex-based PII detection, text tokenisation,
// and the AES-256-GCM vault that stores what each token stands for.
// Patterns are compiled once at construction, detection fails closed
// on internal errors, and plain regexp stands in for an NLP library
// since the detection set is fixed and small (EMAIL, PHONE, SSN, plus
// entity-derived PERSON spans).
package pii

import (
	"regexp"
	"sort"

	"github.com/konetibalaji/benchsales-match/pkg/models"
)

var builtinPatterns = map[models.PIIType]*regexp.Regexp{
	models.PIIEmail: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	models.PIIPhone: regexp.MustCompile(`(?:\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
	models.PIISSN:   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// Finding is one detected span of PII within a text.
type Finding struct {
	Type  models.PIIType
	Start int
	End   int
	Value string
}

// EntitySpan is a PERSON span surfaced by the named-entity recognizer
// (pkg/ner), folded into PII detection.
type EntitySpan struct {
	Start int
	End   int
	Value string
}

// Detector finds PII spans in cleaned ingestion text.
type Detector struct {
	enabled map[models.PIIType]bool
}

// NewDetector builds a detector restricted to the configured types
// (config.PIIConfig.DetectorsOn — e.g. ["EMAIL","PHONE","SSN","PERSON"]).
func NewDetector(detectorsOn []string) *Detector {
	enabled := make(map[models.PIIType]bool, len(detectorsOn))
	for _, name := range detectorsOn {
		enabled[models.PIIType(name)] = true
	}
	return &Detector{enabled: enabled}
}

// Find returns every PII span in text, regex matches plus the supplied
// PERSON entity spans, resolving overlaps by earliest start with no
// re-entry (a span already claimed cannot be claimed again).
func (d *Detector) Find(text string, persons []EntitySpan) []Finding {
	var all []Finding

	for piiType, re := range builtinPatterns {
		if !d.enabled[piiType] {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			all = append(all, Finding{Type: piiType, Start: loc[0], End: loc[1], Value: text[loc[0]:loc[1]]})
		}
	}

	if d.enabled[models.PIIPerson] {
		for _, p := range persons {
			all = append(all, Finding{Type: models.PIIPerson, Start: p.Start, End: p.End, Value: p.Value})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	var resolved []Finding
	claimedUntil := -1
	for _, f := range all {
		if f.Start < claimedUntil {
			continue // overlaps an earlier, already-claimed finding
		}
		resolved = append(resolved, f)
		claimedUntil = f.End
	}
	return resolved
}
