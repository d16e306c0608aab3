package ner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/ner"
)

func TestFallbackRecognizesPersonNames(t *testing.T) {
	f := ner.NewFallback()
	entities := f.Recognize("Resume for Jane Doe, a senior engineer at Acme Corp.")

	var person *ner.Entity
	for i := range entities {
		if entities[i].Type == "PERSON" {
			person = &entities[i]
		}
	}
	require.NotNil(t, person)
	require.Equal(t, "Jane Doe", person.Value)
}

func TestFallbackRecognizesOrgNames(t *testing.T) {
	f := ner.NewFallback()
	entities := f.Recognize("Worked at Globex Inc. for three years.")

	var org *ner.Entity
	for i := range entities {
		if entities[i].Type == "ORG" {
			org = &entities[i]
		}
	}
	require.NotNil(t, org)
	require.Contains(t, org.Value, "Globex Inc")
}

func TestFallbackDoesNotDoubleCountOverlap(t *testing.T) {
	f := ner.NewFallback()
	entities := f.Recognize("John Smith Corp. builds things.")

	// "John Smith Corp." matches the ORG pattern; the PERSON pattern
	// would also match "John Smith" inside it — only the ORG span
	// should survive.
	personCount := 0
	for _, e := range entities {
		if e.Type == "PERSON" {
			personCount++
		}
	}
	require.Equal(t, 0, personCount)
}
