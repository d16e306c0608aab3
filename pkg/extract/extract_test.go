package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/extract"
)

func TestExtractPlainTextPassesThrough(t *testing.T) {
	e := extract.NewExtractor(nil)
	text, err := e.Extract([]byte("hello resume body"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, "hello resume body", text)
}

func TestExtractUnknownContentTypeFallsBackToRawUTF8(t *testing.T) {
	e := extract.NewExtractor(nil)
	text, err := e.Extract([]byte("plain bytes"), "application/octet-stream")
	require.NoError(t, err)
	require.Equal(t, "plain bytes", text)
}

func TestExtractScrubsInvalidUTF8OnFallback(t *testing.T) {
	e := extract.NewExtractor(nil)
	text, err := e.Extract([]byte{0x68, 0x69, 0xff, 0xfe}, "application/octet-stream")
	require.NoError(t, err)
	require.Contains(t, text, "hi")
}

type stubOCR struct {
	text string
	err  error
}

func (s stubOCR) Extract([]byte) (string, error) { return s.text, s.err }

func TestExtractUsesOCRForImageContentType(t *testing.T) {
	e := extract.NewExtractor(stubOCR{text: "scanned resume text"})
	text, err := e.Extract([]byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "scanned resume text", text)
}

func TestExtractFallsBackToRawBytesWhenOCRUnavailable(t *testing.T) {
	e := extract.NewExtractor(nil)
	text, err := e.Extract([]byte("fallback text"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "fallback text", text)
}
