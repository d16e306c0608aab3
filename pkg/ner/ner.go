// Package ner recognizes named entities in ingested text. It exists so
// pkg/pii's PERSON detection has something to call regardless of
// whether a real NER collaborator is configured: a deterministic regex
// fallback is the only implementation here — EntityRecognizer is the
// seam a real model-backed recognizer would plug into later.
package ner

import "regexp"

// Entity is one recognized span.
type Entity struct {
	Type  string // "PERSON", "ORG"
	Start int
	End   int
	Value string
}

// EntityRecognizer is the seam a future model-backed recognizer
// implements; Fallback below is the only implementation shipped here.
type EntityRecognizer interface {
	Recognize(text string) []Entity
}

// personName matches a run of two or three capitalized words — a
// deterministic stand-in for PERSON recognition that needs no model.
var personName = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)

// orgSuffix matches a capitalized word run ending in a common company
// suffix, e.g. "Acme Corp", "Globex Inc.".
var orgSuffix = regexp.MustCompile(`\b[A-Z][A-Za-z&]+(?:\s+[A-Z][A-Za-z&]+)*\s+(?:Inc|LLC|Ltd|Corp|Corporation|Co)\.?\b`)

// Fallback is the deterministic regex recognizer used when no
// model-backed NER collaborator is configured.
type Fallback struct{}

// NewFallback builds the regex-based recognizer.
func NewFallback() *Fallback { return &Fallback{} }

// Recognize returns PERSON and ORG spans found via fixed patterns, in
// text order, with ORG matches masking out any overlapping PERSON match
// (a person name swallowed by a longer org match is dropped).
func (f *Fallback) Recognize(text string) []Entity {
	var entities []Entity

	for _, loc := range orgSuffix.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{Type: "ORG", Start: loc[0], End: loc[1], Value: text[loc[0]:loc[1]]})
	}
	for _, loc := range personName.FindAllStringIndex(text, -1) {
		if overlapsAny(entities, loc[0], loc[1]) {
			continue
		}
		entities = append(entities, Entity{Type: "PERSON", Start: loc[0], End: loc[1], Value: text[loc[0]:loc[1]]})
	}

	return entities
}

func overlapsAny(entities []Entity, start, end int) bool {
	for _, e := range entities {
		if start < e.End && end > e.Start {
			return true
		}
	}
	return false
}
